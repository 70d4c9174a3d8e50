package inspection

import "github.com/FleetGuardian/FleetGuardian/internal/defect"

// Verdict 安全评估结论。ForcedStatus 为空表示不强制覆盖。
type Verdict struct {
	SafeToOperate bool
	ForcedStatus  Status
}

// EvaluateSafety 严重级别升级策略（纯函数，不碰存储）：
// 新增与结转缺陷的并集中只要有一个 critical，车辆即判不可运行，
// 检查单状态强制为 requires_repair，无视检查员的申报值；
// 否则沿用检查员申报的 safeToOperate，不做覆盖。
func EvaluateSafety(submittedSafe bool, defects []defect.Defect) Verdict {
	for i := range defects {
		if defects[i].Severity == defect.SeverityCritical {
			return Verdict{SafeToOperate: false, ForcedStatus: StatusRequiresRepair}
		}
	}
	return Verdict{SafeToOperate: submittedSafe}
}
