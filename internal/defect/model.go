package defect

import "time"

// Severity 缺陷严重级别（持久化为字符串）。
type Severity string

const (
	SeverityCritical Severity = "critical" // 危及安全，车辆必须停运整修
	SeverityMajor    Severity = "major"    // 需要尽快整改
	SeverityMinor    Severity = "minor"    // 可观察，不影响运行
)

// ValidSeverity 校验严重级别取值
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// Status 缺陷状态枚举（持久化为字符串）。
type Status string

const (
	StatusOpen       Status = "open"        // 已发现，待处理
	StatusInProgress Status = "in_progress" // 整改中
	StatusCorrected  Status = "corrected"   // 已整改（唯一的"已解决"状态）
	StatusDeferred   Status = "deferred"    // 经批准暂缓处理
)

// ValidStatus 校验状态取值
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCorrected, StatusDeferred:
		return true
	}
	return false
}

// Defect 缺陷台账 GORM 模型。
// 一个缺陷终身属于一辆车，并始终引用最初发现它的那次检查
// （origin inspection），后续结转只累加 carried_over_count，
// 正常流程不做物理删除（删除是管理员专属操作）。
type Defect struct {
	ID string `gorm:"primaryKey;size:36"`

	// 业务关联
	VehicleID          string `gorm:"index;size:36;not null"` // 所属车辆
	OriginInspectionID string `gorm:"index;size:36;not null"` // 首次发现该缺陷的检查单

	Description string   `gorm:"size:512;not null"`
	Location    string   `gorm:"size:128"`                        // 可选：部位（如"左前刹车"）
	Severity    Severity `gorm:"type:varchar(16);not null"`       // critical / major / minor
	Status      Status   `gorm:"type:varchar(16);index;not null"` // 当前状态

	// 发现信息
	IdentifiedBy string    `gorm:"size:36;not null"`
	IdentifiedAt time.Time `gorm:"index;not null"`

	// 整改信息（仅 status=corrected 时存在，离开 corrected 即清空）
	CorrectedBy     string `gorm:"size:36"`
	CorrectedAt     *time.Time
	CorrectionNotes string `gorm:"size:512"`

	// 暂缓信息（仅 status=deferred 时存在）
	DeferralReason   string `gorm:"size:512"`
	DeferralApprover string `gorm:"size:36"`

	// 每被结转进一次新检查单 +1，只增不减
	CarriedOverCount int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Resolved 缺陷是否已解决（只有 corrected 算解决；deferred 仍会结转）。
func (d *Defect) Resolved() bool {
	return d != nil && d.Status == StatusCorrected
}
