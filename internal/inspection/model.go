package inspection

import "time"

// Type 检查类型（持久化为字符串）。
type Type string

const (
	TypePreTrip  Type = "pre_trip"  // 出车前
	TypePostTrip Type = "post_trip" // 收车后
	TypeRoutine  Type = "routine"   // 例行
)

// ValidType 校验检查类型取值
func ValidType(t Type) bool {
	switch t {
	case TypePreTrip, TypePostTrip, TypeRoutine:
		return true
	}
	return false
}

// Status 检查单状态枚举。
type Status string

const (
	StatusDraft          Status = "draft"           // 草稿（创建中的瞬态）
	StatusSubmitted      Status = "submitted"       // 检查员已提交
	StatusReviewed       Status = "reviewed"        // 已复核
	StatusApproved       Status = "approved"        // 已批准（终态）
	StatusRequiresRepair Status = "requires_repair" // 被严重缺陷强制：需整修
)

// reviewAllowedFrom 复核操作的合法起始状态。
// draft 没有可复核内容；approved 是终态；requires_repair 仍可由
// 人工复核/批准——系统不自动解除该状态，是否放行由人决定。
var reviewAllowedFrom = map[Status]bool{
	StatusSubmitted:      true,
	StatusRequiresRepair: true,
	StatusReviewed:       true,
}

// CanReview 判断当前状态是否允许复核
func CanReview(from Status) bool {
	return reviewAllowedFrom[from]
}

// ChecklistItem 检查单的有序检查项。
type ChecklistItem struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	InspectionID string `gorm:"index;size:36;not null"`
	Position     int    `gorm:"not null"` // 保持提交顺序
	Category     string `gorm:"size:64;not null"`
	Condition    string `gorm:"size:32"`
	Notes        string `gorm:"size:512"`
}

// CarriedDefect 结转条目：缺陷 + 它最初被发现的那次检查。
// 指向真正的 origin inspection 而不是上一次检查，
// 消费方由此能追溯缺陷首次出现的时间点。
// 创建检查单时由系统一次性写入，之后只读。
type CarriedDefect struct {
	ID                      uint   `gorm:"primaryKey;autoIncrement"`
	InspectionID            string `gorm:"index;size:36;not null"`
	DefectID                string `gorm:"index;size:36;not null"`
	CarriedFromInspectionID string `gorm:"size:36;not null"`
}

// Record 检查单 GORM 模型：一辆车的一次检查事件。
type Record struct {
	ID string `gorm:"primaryKey;size:36"`

	VehicleID   string `gorm:"index;size:36;not null"`
	InspectorID string `gorm:"index;size:36;not null"`
	Type        Type   `gorm:"type:varchar(16);not null"`
	Status      Status `gorm:"type:varchar(16);index;not null"`

	InspectedAt time.Time `gorm:"not null"`
	Odometer    *int64    // 可选：里程读数

	// 派生字段：新增缺陷 ∪ 结转缺陷非空 <=> true
	HasDefects bool `gorm:"not null;default:false"`
	// 存在 critical 缺陷时被策略强制为 false
	SafeToOperate bool `gorm:"not null;default:true"`
	// 结转读取失败降级时为 true，运营侧据此排查安全口径缺口
	CarryOverDegraded bool `gorm:"not null;default:false"`

	// 复核信息（仅 reviewed/approved 后存在）
	ReviewedBy  string `gorm:"size:36"`
	ReviewedAt  *time.Time
	ReviewNotes string `gorm:"size:512"`

	Checklist []ChecklistItem `gorm:"foreignKey:InspectionID"`
	Carried   []CarriedDefect `gorm:"foreignKey:InspectionID"`

	// 本次新发现的缺陷 ID（defects 表里 origin 指向本单；查询时填充）
	NewDefectIDs []string `gorm:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
