package defect

import (
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
)

// AllowTransition 定义缺陷状态机的允许流转关系。
// 四个状态之间均可人工流转（暂缓可以重新打开，整改后发现没修好
// 也可以退回），约束体现在字段副作用上而不是连通性上。
var AllowTransition = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusCorrected, StatusDeferred},
	StatusInProgress: {StatusOpen, StatusCorrected, StatusDeferred},
	StatusCorrected:  {StatusOpen, StatusInProgress, StatusDeferred},
	StatusDeferred:   {StatusOpen, StatusInProgress, StatusCorrected},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
// 同状态重复提交不算流转。
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionInput 状态流转的附加输入。
type TransitionInput struct {
	Actor string    // 操作人
	Now   time.Time // 操作时间

	CorrectedAt      *time.Time // 可选：显式整改时间，缺省取 Now
	CorrectionNotes  string
	DeferralReason   string
	DeferralApprover string
}

// ApplyTransition 对缺陷应用状态变更，并维护字段不变式：
// - 进入 corrected：填 correctedBy/correctedAt（未显式给出则取 Now）/correctionNotes
// - 离开 corrected：清空以上三个字段
// - 进入 deferred：必须带 deferralReason + deferralApprover
// - 离开 deferred：清空暂缓字段
// 校验失败时缺陷保持原状。
func ApplyTransition(d *Defect, to Status, in TransitionInput) error {
	if d == nil {
		return errs.InvalidInput("defect is nil")
	}
	if !ValidStatus(to) {
		return errs.InvalidInput("unknown defect status: %s", to)
	}
	from := d.Status
	if !CanTransition(from, to) {
		return errs.InvalidTransition("defect status %s -> %s not allowed", from, to)
	}
	if to == StatusDeferred && (in.DeferralReason == "" || in.DeferralApprover == "") {
		return errs.InvalidInput("deferral requires reason and approver")
	}

	if from == StatusCorrected {
		d.CorrectedBy = ""
		d.CorrectedAt = nil
		d.CorrectionNotes = ""
	}
	if from == StatusDeferred {
		d.DeferralReason = ""
		d.DeferralApprover = ""
	}

	switch to {
	case StatusCorrected:
		d.CorrectedBy = in.Actor
		if in.CorrectedAt != nil {
			t := *in.CorrectedAt
			d.CorrectedAt = &t
		} else {
			t := in.Now
			d.CorrectedAt = &t
		}
		d.CorrectionNotes = in.CorrectionNotes
	case StatusDeferred:
		d.DeferralReason = in.DeferralReason
		d.DeferralApprover = in.DeferralApprover
	}

	d.Status = to
	return nil
}
