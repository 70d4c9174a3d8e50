package inspection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/FleetGuardian/FleetGuardian/internal/defect"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"github.com/FleetGuardian/FleetGuardian/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 检查单流水线 + 复核工作流。
// 每次调用在一次同步请求内跑完，不在中途挂起。
type Service struct {
	records  RecordStore
	ledger   Ledger
	registry vehicle.Registry
	users    identity.Registry
	policy   *identity.Policy
	resolver *Resolver
	locks    keyedMutex
	log      logger.Logger
	now      func() time.Time
}

func NewService(records RecordStore, ledger Ledger, registry vehicle.Registry, users identity.Registry, policy *identity.Policy, log logger.Logger) *Service {
	return &Service{
		records:  records,
		ledger:   ledger,
		registry: registry,
		users:    users,
		policy:   policy,
		resolver: NewResolver(ledger, log),
		log:      log,
		now:      time.Now,
	}
}

// WithClock 替换时钟（测试用）。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NewDefectDescriptor 检查中新发现缺陷的描述。
type NewDefectDescriptor struct {
	Description string
	Location    string
	Severity    defect.Severity
}

// ChecklistItemInput 检查项入参（顺序即提交顺序）。
type ChecklistItemInput struct {
	Category  string
	Condition string
	Notes     string
}

// CreateInput 创建检查单的入参。
type CreateInput struct {
	VehicleID   string
	InspectorID string
	Type        Type
	Odometer    *int64
	Checklist   []ChecklistItemInput
	NewDefects  []NewDefectDescriptor
	// 检查员申报的可运行判断；存在 critical 缺陷时被策略覆盖
	SafeToOperate bool
}

// CreateInspection 创建检查单：
//  1. 校验必填字段与车辆/检查员存在性
//  2. 构造草稿记录
//  3. 为每个新缺陷描述构造缺陷实体（任何一条非法则整体失败）
//  4. 结转解析（读失败降级为空集合，不阻塞创建）
//  5. 推导 hasDefects
//  6. 安全评估，必要时强制 requires_repair
//  7. 单事务落库（记录 + 检查项 + 结转条目 + 新缺陷 + 计数）
//
// 同一辆车的创建全程持车辆锁：并发创建不会漏结转，
// 计数每单恰好 +1；不同车辆互不阻塞。
func (s *Service) CreateInspection(ctx context.Context, actor identity.Actor, in CreateInput) (*Record, error) {
	if s == nil || s.records == nil || s.ledger == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if err := s.policy.Authorize(actor, identity.CapCreateInspection); err != nil {
		return nil, err
	}

	in.VehicleID = strings.TrimSpace(in.VehicleID)
	in.InspectorID = strings.TrimSpace(in.InspectorID)
	if in.VehicleID == "" {
		return nil, errs.InvalidInput("vehicle_id required")
	}
	if in.InspectorID == "" {
		return nil, errs.InvalidInput("inspector_id required")
	}
	if !ValidType(in.Type) {
		return nil, errs.InvalidInput("inspection type must be pre_trip/post_trip/routine, got %q", in.Type)
	}

	if err := s.checkVehicle(ctx, in.VehicleID); err != nil {
		return nil, err
	}
	if err := s.checkInspector(ctx, in.InspectorID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.VehicleID)
	defer unlock()

	now := s.now()
	rec := &Record{
		ID:            uuid.NewString(),
		VehicleID:     in.VehicleID,
		InspectorID:   in.InspectorID,
		Type:          in.Type,
		Status:        StatusDraft,
		InspectedAt:   now,
		Odometer:      in.Odometer,
		SafeToOperate: in.SafeToOperate,
	}
	for i, item := range in.Checklist {
		rec.Checklist = append(rec.Checklist, ChecklistItem{
			InspectionID: rec.ID,
			Position:     i,
			Category:     strings.TrimSpace(item.Category),
			Condition:    strings.TrimSpace(item.Condition),
			Notes:        strings.TrimSpace(item.Notes),
		})
	}

	// 新缺陷：描述非法必须让整个操作失败，而不是悄悄丢掉
	newDefects := make([]*defect.Defect, 0, len(in.NewDefects))
	for _, nd := range in.NewDefects {
		d, err := s.ledger.NewDefect(actor, defect.CreateDefectInput{
			VehicleID:          in.VehicleID,
			OriginInspectionID: rec.ID,
			Description:        nd.Description,
			Location:           nd.Location,
			Severity:           nd.Severity,
			IdentifiedBy:       in.InspectorID,
			IdentifiedAt:       now,
		})
		if err != nil {
			return nil, err
		}
		newDefects = append(newDefects, d)
	}

	carry := s.resolver.Resolve(ctx, in.VehicleID, rec.ID)
	for i := range carry.Entries {
		carry.Entries[i].InspectionID = rec.ID
	}
	rec.Carried = carry.Entries
	rec.CarryOverDegraded = carry.Degraded

	union := make([]defect.Defect, 0, len(newDefects)+len(carry.Defects))
	for _, d := range newDefects {
		union = append(union, *d)
	}
	union = append(union, carry.Defects...)
	rec.HasDefects = len(union) > 0

	verdict := EvaluateSafety(in.SafeToOperate, union)
	rec.SafeToOperate = verdict.SafeToOperate
	if verdict.ForcedStatus != "" {
		rec.Status = verdict.ForcedStatus
	} else {
		rec.Status = StatusSubmitted
	}

	carryIDs := make([]string, 0, len(carry.Entries))
	for _, e := range carry.Entries {
		carryIDs = append(carryIDs, e.DefectID)
	}
	if err := s.records.Create(ctx, rec, newDefects, carryIDs); err != nil {
		return nil, errs.Storage(err, "persist inspection for vehicle %s", in.VehicleID)
	}

	for _, d := range newDefects {
		rec.NewDefectIDs = append(rec.NewDefectIDs, d.ID)
	}
	if rec.CarryOverDegraded && s.log != nil {
		s.log.WithFields(map[string]interface{}{
			"vehicle_id":    rec.VehicleID,
			"inspection_id": rec.ID,
		}).Error("inspection persisted with degraded carry-over: safety view may be incomplete")
	}
	return rec, nil
}

// ReviewInput 复核入参。
type ReviewInput struct {
	InspectionID string
	ReviewerID   string // 为空取当前调用者
	Decision     Status // reviewed / approved
	Notes        string
}

// Review 复核/批准检查单。
// 允许的起始状态：submitted / requires_repair / reviewed；
// draft 没有可复核内容，approved 是终态。requires_repair 单据
// 同样由人工决定是否放行，系统不自动解除。
func (s *Service) Review(ctx context.Context, actor identity.Actor, in ReviewInput) (*Record, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if err := s.policy.Authorize(actor, identity.CapReviewInspection); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(in.InspectionID)
	if id == "" {
		return nil, errs.InvalidInput("inspection_id required")
	}
	if in.Decision != StatusReviewed && in.Decision != StatusApproved {
		return nil, errs.InvalidInput("decision must be reviewed or approved, got %q", in.Decision)
	}
	reviewer := strings.TrimSpace(in.ReviewerID)
	if reviewer == "" {
		reviewer = actor.ID
	}

	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Status == StatusDraft {
		return nil, errs.InvalidTransition("draft inspection has nothing to review")
	}
	if rec.Status == StatusApproved {
		return nil, errs.InvalidTransition("approved inspection is terminal")
	}
	if !CanReview(rec.Status) {
		return nil, errs.InvalidTransition("inspection status %s cannot be reviewed", rec.Status)
	}

	now := s.now()
	rec.Status = in.Decision
	rec.ReviewedBy = reviewer
	rec.ReviewedAt = &now
	rec.ReviewNotes = strings.TrimSpace(in.Notes)

	if err := s.records.Save(ctx, rec); err != nil {
		return nil, errs.Storage(err, "save inspection %s", id)
	}
	return rec, nil
}

// Get 查询检查单，并补充本次新发现的缺陷 ID。
func (s *Service) Get(ctx context.Context, inspectionID string) (*Record, error) {
	if s == nil || s.records == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	inspectionID = strings.TrimSpace(inspectionID)
	if inspectionID == "" {
		return nil, errs.InvalidInput("inspection_id required")
	}
	rec, err := s.get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if news, err := s.ledger.ListByOrigin(ctx, rec.ID); err == nil {
		for i := range news {
			rec.NewDefectIDs = append(rec.NewDefectIDs, news[i].ID)
		}
	}
	return rec, nil
}

// List 按车辆/状态过滤检查单。
func (s *Service) List(ctx context.Context, vehicleID string, status Status, offset, limit int) ([]Record, int64, error) {
	if s == nil || s.records == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	records, total, err := s.records.List(ctx, strings.TrimSpace(vehicleID), status, offset, limit)
	if err != nil {
		return nil, 0, errs.Storage(err, "list inspections")
	}
	return records, total, nil
}

func (s *Service) get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("inspection %s not found", id)
	}
	if err != nil {
		return nil, errs.Storage(err, "get inspection %s", id)
	}
	return rec, nil
}

// checkVehicle 车辆必须登记在册。登记侧查询失败按写失败处理：
// 创建是写路径，没有降级空间。
func (s *Service) checkVehicle(ctx context.Context, vehicleID string) error {
	if s.registry == nil {
		return nil
	}
	exists, err := s.registry.Exists(ctx, vehicleID)
	if err != nil {
		return errs.Storage(err, "vehicle registry lookup for %s", vehicleID)
	}
	if !exists {
		return errs.InvalidInput("vehicle %s is not registered", vehicleID)
	}
	return nil
}

func (s *Service) checkInspector(ctx context.Context, inspectorID string) error {
	if s.users == nil {
		return nil
	}
	exists, err := s.users.UserExists(ctx, inspectorID)
	if err != nil {
		return errs.Storage(err, "identity lookup for %s", inspectorID)
	}
	if !exists {
		return errs.InvalidInput("inspector %s is not a known user", inspectorID)
	}
	return nil
}
