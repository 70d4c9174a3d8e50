package identity

import (
	"github.com/FleetGuardian/FleetGuardian/internal/common/auth"
	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
)

// Capability 业务能力点。操作前由 Policy 统一评估，
// 而不是在各处散落 "is admin" 判断。
type Capability string

const (
	CapReadDefect       Capability = "defect:read"
	CapWriteDefect      Capability = "defect:write"
	CapHardDeleteDefect Capability = "defect:hard_delete"
	CapCreateInspection Capability = "inspection:create"
	CapReviewInspection Capability = "inspection:review"
)

// Actor 一次调用的发起者（来自 JWT）。
type Actor struct {
	ID    string
	Roles []string
}

func ActorFromAuthInfo(ai auth.AuthInfo) Actor {
	return Actor{ID: ai.Subject, Roles: ai.Roles}
}

// Policy 能力->角色的授权策略。规则为空的能力只要求已认证身份。
type Policy struct {
	rules map[Capability][]string
}

// DefaultPolicy 默认策略：
// - 读写缺陷/创建检查单：任意已认证身份
// - 复核：reviewer / admin
// - 硬删除缺陷：仅 admin（管理操作，区别于正常整改）
func DefaultPolicy() *Policy {
	return &Policy{
		rules: map[Capability][]string{
			CapReadDefect:       nil,
			CapWriteDefect:      nil,
			CapCreateInspection: nil,
			CapReviewInspection: {RoleReviewer, RoleAdmin},
			CapHardDeleteDefect: {RoleAdmin},
		},
	}
}

// NewPolicy 自定义策略（测试或按环境覆盖用）。
func NewPolicy(rules map[Capability][]string) *Policy {
	return &Policy{rules: rules}
}

// Authorize 评估 actor 是否具备某能力；失败返回 Unauthorized。
func (p *Policy) Authorize(actor Actor, cap Capability) error {
	if actor.ID == "" {
		return errs.Unauthorized("anonymous caller cannot %s", cap)
	}
	if p == nil {
		return nil
	}
	required, ok := p.rules[cap]
	if !ok || len(required) == 0 {
		return nil
	}
	if auth.HasAnyRole(actor.Roles, required) {
		return nil
	}
	return errs.Unauthorized("caller %s lacks role for %s", actor.ID, cap)
}
