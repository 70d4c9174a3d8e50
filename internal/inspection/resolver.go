package inspection

import (
	"context"

	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/FleetGuardian/FleetGuardian/internal/defect"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
)

// Ledger 检查单流水线消费的缺陷台账接口（defect.Service 实现）。
type Ledger interface {
	NewDefect(actor identity.Actor, in defect.CreateDefectInput) (*defect.Defect, error)
	ListUnresolved(ctx context.Context, vehicleID string) ([]defect.Defect, error)
	ListByOrigin(ctx context.Context, originInspectionID string) ([]defect.Defect, error)
}

// CarryOverResult 结转解析结果。
type CarryOverResult struct {
	Entries []CarriedDefect // 写入检查单的结转条目
	Defects []defect.Defect // 对应的缺陷实体（安全评估用）
	// 台账读取失败时为 true：结转集合为空但检查单照常创建，
	// 安全口径被削弱，必须在日志与单据上可区分
	Degraded bool
}

// Resolver 结转解析器：算出即将创建的检查单必须携带的缺陷集合。
type Resolver struct {
	ledger Ledger
	log    logger.Logger
}

func NewResolver(ledger Ledger, log logger.Logger) *Resolver {
	return &Resolver{ledger: ledger, log: log}
}

// Resolve 查询车辆全部未解决缺陷并生成结转条目。
// 每个条目引用缺陷的 origin inspection（而非上一次检查）。
// excludeOriginID 用于排除"本次检查自己刚发现"的缺陷——
// 它们作为新增缺陷挂在单上，不算结转。
//
// 失败策略：历史数据读不出来不能挡住新检查的创建，
// 读失败时返回空集合 + Degraded 标记，并按 error 级别记日志。
func (r *Resolver) Resolve(ctx context.Context, vehicleID, excludeOriginID string) CarryOverResult {
	unresolved, err := r.ledger.ListUnresolved(ctx, vehicleID)
	if err != nil {
		if r.log != nil {
			r.log.WithFields(map[string]interface{}{
				"vehicle_id":    vehicleID,
				"inspection_id": excludeOriginID,
				"error":         err.Error(),
			}).Error("carry-over resolution degraded: unresolved defects unavailable, proceeding with empty set")
		}
		return CarryOverResult{Degraded: true}
	}

	res := CarryOverResult{}
	for i := range unresolved {
		d := unresolved[i]
		if d.OriginInspectionID == excludeOriginID {
			continue
		}
		res.Entries = append(res.Entries, CarriedDefect{
			DefectID:                d.ID,
			CarriedFromInspectionID: d.OriginInspectionID,
		})
		res.Defects = append(res.Defects, d)
	}
	return res
}
