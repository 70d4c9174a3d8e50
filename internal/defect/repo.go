package defect

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, d *Defect) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(d).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Defect, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d Defect
	if err := db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repo) Save(ctx context.Context, d *Defect) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(d).Error
}

// ListUnresolved 返回车辆所有未解决缺陷（status != corrected），
// 按发现时间升序，保证下游结转清单的审计顺序稳定。
func (r *Repo) ListUnresolved(ctx context.Context, vehicleID string) ([]Defect, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var defects []Defect
	err := db.
		Where("vehicle_id = ? AND status <> ?", vehicleID, StatusCorrected).
		Order("identified_at asc").
		Find(&defects).Error
	if err != nil {
		return nil, err
	}
	return defects, nil
}

// ListByOrigin 返回以某次检查为 origin 的全部缺陷，按发现时间升序。
func (r *Repo) ListByOrigin(ctx context.Context, originInspectionID string) ([]Defect, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var defects []Defect
	err := db.
		Where("origin_inspection_id = ?", originInspectionID).
		Order("identified_at asc").
		Find(&defects).Error
	if err != nil {
		return nil, err
	}
	return defects, nil
}

// IncrementCarryOver 原子地把结转计数 +1。
// 单条 UPDATE 由数据库保证并发安全，不读改写。
func (r *Repo) IncrementCarryOver(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Defect{}).
		Where("id = ?", id).
		UpdateColumn("carried_over_count", gorm.Expr("carried_over_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 物理删除（仅管理员通道调用）。
func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Where("id = ?", id).Delete(&Defect{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
