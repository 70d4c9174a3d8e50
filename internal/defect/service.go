package defect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store 缺陷台账的持久化接口（GORM Repo 实现；测试用内存实现）。
type Store interface {
	Create(ctx context.Context, d *Defect) error
	GetByID(ctx context.Context, id string) (*Defect, error)
	Save(ctx context.Context, d *Defect) error
	ListUnresolved(ctx context.Context, vehicleID string) ([]Defect, error)
	ListByOrigin(ctx context.Context, originInspectionID string) ([]Defect, error)
	IncrementCarryOver(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Service 缺陷台账领域服务（不依赖 HTTP），所有变更先过授权策略。
type Service struct {
	store  Store
	policy *identity.Policy
	log    logger.Logger
	now    func() time.Time
}

func NewService(store Store, policy *identity.Policy, log logger.Logger) *Service {
	return &Service{
		store:  store,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// WithClock 替换时钟（测试用）。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateDefectInput 新建缺陷的入参。
type CreateDefectInput struct {
	VehicleID          string
	OriginInspectionID string
	Description        string
	Location           string
	Severity           Severity
	IdentifiedBy       string
	IdentifiedAt       time.Time // 零值取当前时间
}

// NewDefect 校验并构造缺陷实体但不落库：status=open，结转计数 0。
// 检查单创建流水线用它在自己的事务里连同检查单一起持久化。
func (s *Service) NewDefect(actor identity.Actor, in CreateDefectInput) (*Defect, error) {
	if s == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if err := s.policy.Authorize(actor, identity.CapWriteDefect); err != nil {
		return nil, err
	}

	in.VehicleID = strings.TrimSpace(in.VehicleID)
	in.OriginInspectionID = strings.TrimSpace(in.OriginInspectionID)
	in.Description = strings.TrimSpace(in.Description)
	in.IdentifiedBy = strings.TrimSpace(in.IdentifiedBy)

	if in.VehicleID == "" {
		return nil, errs.InvalidInput("vehicle_id required")
	}
	if in.OriginInspectionID == "" {
		return nil, errs.InvalidInput("origin_inspection_id required")
	}
	if in.Description == "" {
		return nil, errs.InvalidInput("description required")
	}
	if !ValidSeverity(in.Severity) {
		return nil, errs.InvalidInput("severity must be critical/major/minor, got %q", in.Severity)
	}
	if in.IdentifiedBy == "" {
		return nil, errs.InvalidInput("identified_by required")
	}
	if in.IdentifiedAt.IsZero() {
		in.IdentifiedAt = s.now()
	}

	d := &Defect{
		ID:                 uuid.NewString(),
		VehicleID:          in.VehicleID,
		OriginInspectionID: in.OriginInspectionID,
		Description:        in.Description,
		Location:           strings.TrimSpace(in.Location),
		Severity:           in.Severity,
		Status:             StatusOpen,
		IdentifiedBy:       in.IdentifiedBy,
		IdentifiedAt:       in.IdentifiedAt,
		CarriedOverCount:   0,
	}
	return d, nil
}

// CreateDefect 新建缺陷并落库。
func (s *Service) CreateDefect(ctx context.Context, actor identity.Actor, in CreateDefectInput) (*Defect, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	d, err := s.NewDefect(actor, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, errs.Storage(err, "create defect")
	}
	return d, nil
}

// ListByOrigin 某次检查中新发现的全部缺陷。
func (s *Service) ListByOrigin(ctx context.Context, originInspectionID string) ([]Defect, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	originInspectionID = strings.TrimSpace(originInspectionID)
	if originInspectionID == "" {
		return nil, errs.InvalidInput("origin_inspection_id required")
	}
	defects, err := s.store.ListByOrigin(ctx, originInspectionID)
	if err != nil {
		return nil, errs.Storage(err, "list defects by origin %s", originInspectionID)
	}
	return defects, nil
}

// UpdateStatusInput 状态流转的入参。
type UpdateStatusInput struct {
	DefectID  string
	NewStatus Status

	CorrectedAt      *time.Time // 可选：显式整改时间
	CorrectionNotes  string
	DeferralReason   string
	DeferralApprover string
}

// UpdateStatus 按状态机规则流转缺陷状态；除缺陷本身外无级联副作用。
func (s *Service) UpdateStatus(ctx context.Context, actor identity.Actor, in UpdateStatusInput) (*Defect, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if err := s.policy.Authorize(actor, identity.CapWriteDefect); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.DefectID)
	if id == "" {
		return nil, errs.InvalidInput("defect_id required")
	}
	if in.NewStatus == "" {
		return nil, errs.InvalidInput("new status required")
	}

	d, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = ApplyTransition(d, in.NewStatus, TransitionInput{
		Actor:            actor.ID,
		Now:              s.now(),
		CorrectedAt:      in.CorrectedAt,
		CorrectionNotes:  strings.TrimSpace(in.CorrectionNotes),
		DeferralReason:   strings.TrimSpace(in.DeferralReason),
		DeferralApprover: strings.TrimSpace(in.DeferralApprover),
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, d); err != nil {
		return nil, errs.Storage(err, "save defect %s", id)
	}
	return d, nil
}

// IncrementCarryOver 结转计数 +1（系统发起，结转流程专用）。
func (s *Service) IncrementCarryOver(ctx context.Context, defectID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	defectID = strings.TrimSpace(defectID)
	if defectID == "" {
		return errs.InvalidInput("defect_id required")
	}
	if err := s.store.IncrementCarryOver(ctx, defectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("defect %s not found", defectID)
		}
		return errs.Storage(err, "increment carry-over for defect %s", defectID)
	}
	return nil
}

// ListUnresolved 车辆当前所有未解决缺陷，按发现时间升序。
func (s *Service) ListUnresolved(ctx context.Context, vehicleID string) ([]Defect, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, errs.InvalidInput("vehicle_id required")
	}
	defects, err := s.store.ListUnresolved(ctx, vehicleID)
	if err != nil {
		return nil, errs.Storage(err, "list unresolved defects for vehicle %s", vehicleID)
	}
	return defects, nil
}

// Get 查询单个缺陷。
func (s *Service) Get(ctx context.Context, defectID string) (*Defect, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	defectID = strings.TrimSpace(defectID)
	if defectID == "" {
		return nil, errs.InvalidInput("defect_id required")
	}
	return s.get(ctx, defectID)
}

// HardDelete 物理删除缺陷。管理员专属，区别于正常整改流程。
func (s *Service) HardDelete(ctx context.Context, actor identity.Actor, defectID string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	if err := s.policy.Authorize(actor, identity.CapHardDeleteDefect); err != nil {
		return err
	}
	defectID = strings.TrimSpace(defectID)
	if defectID == "" {
		return errs.InvalidInput("defect_id required")
	}
	if err := s.store.Delete(ctx, defectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("defect %s not found", defectID)
		}
		return errs.Storage(err, "delete defect %s", defectID)
	}
	if s.log != nil {
		s.log.WithFields(map[string]interface{}{
			"defect_id": defectID,
			"actor":     actor.ID,
		}).Warn("defect hard-deleted by administrator")
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*Defect, error) {
	d, err := s.store.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("defect %s not found", id)
	}
	if err != nil {
		return nil, errs.Storage(err, "get defect %s", id)
	}
	return d, nil
}
