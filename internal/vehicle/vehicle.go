package vehicle

import (
	"context"
	"time"
)

// 车辆状态
const (
	StatusActive  = "active"  // 在役
	StatusRetired = "retired" // 退役，不再接受检查
)

// Vehicle 是 vehicles 表的 GORM 模型。
// 检查/缺陷引擎只读取车辆标识做校验，车辆台账本身由登记侧维护。
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:36"`
	PlateNumber string    `gorm:"uniqueIndex;size:32;not null"`
	VIN         string    `gorm:"size:64"`
	Model       string    `gorm:"size:64"`
	OwnerID     string    `gorm:"index;size:36"`
	Status      string    `gorm:"size:16;not null"` // active / retired
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Registry 引擎消费的车辆登记最小接口。
type Registry interface {
	Exists(ctx context.Context, vehicleID string) (bool, error)
}
