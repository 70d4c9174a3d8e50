package inspection

import (
	"context"
	"fmt"

	"github.com/FleetGuardian/FleetGuardian/internal/defect"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore 检查单的持久化接口。
// Create 把检查单、检查项、结转条目、新增缺陷行和结转计数 +1
// 放在同一个事务里提交：要么全部落库，要么什么都不留。
type RecordStore interface {
	Create(ctx context.Context, rec *Record, newDefects []*defect.Defect, carryOverDefectIDs []string) error
	GetByID(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context, vehicleID string, status Status, offset, limit int) ([]Record, int64, error)
}

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

var _ RecordStore = (*Repo)(nil)

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

// Create 单事务提交整个检查单及其副作用。
func (r *Repo) Create(ctx context.Context, rec *Record, newDefects []*defect.Defect, carryOverDefectIDs []string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		// 检查项/结转条目作为关联随主记录一起插入
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		for _, d := range newDefects {
			if err := tx.Create(d).Error; err != nil {
				return err
			}
		}
		for _, id := range carryOverDefectIDs {
			res := tx.Model(&defect.Defect{}).
				Where("id = ?", id).
				UpdateColumn("carried_over_count", gorm.Expr("carried_over_count + ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("carry-over target defect %s vanished", id)
			}
		}
		return nil
	})
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Record, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var rec Record
	err := db.
		Preload("Checklist", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Carried").
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save 只更新主记录字段（复核信息等），不动关联行——
// 结转条目创建后只读。
func (r *Repo) Save(ctx context.Context, rec *Record) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Omit(clause.Associations).Save(rec).Error
}

// List 支持按 vehicle_id / status 过滤 + 分页。
func (r *Repo) List(ctx context.Context, vehicleID string, status Status, offset, limit int) ([]Record, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&Record{})
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []Record
	if err := q.Order("inspected_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
