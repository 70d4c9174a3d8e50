package defect

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"gorm.io/gorm"
)

// memStore 内存版 Store，行为对齐 GORM Repo。
type memStore struct {
	mu      sync.Mutex
	defects map[string]*Defect
}

func newMemStore() *memStore {
	return &memStore{defects: map[string]*Defect{}}
}

func (m *memStore) Create(_ context.Context, d *Defect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.defects[d.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Defect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) Save(_ context.Context, d *Defect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.defects[d.ID] = &cp
	return nil
}

func (m *memStore) ListUnresolved(_ context.Context, vehicleID string) ([]Defect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Defect
	for _, d := range m.defects {
		if d.VehicleID == vehicleID && d.Status != StatusCorrected {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IdentifiedAt.Before(out[j].IdentifiedAt)
	})
	return out, nil
}

func (m *memStore) ListByOrigin(_ context.Context, origin string) ([]Defect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Defect
	for _, d := range m.defects {
		if d.OriginInspectionID == origin {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memStore) IncrementCarryOver(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.CarriedOverCount++
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.defects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.defects, id)
	return nil
}

var (
	mechanic = identity.Actor{ID: "u-mech", Roles: []string{identity.RoleMechanic}}
	admin    = identity.Actor{ID: "u-admin", Roles: []string{identity.RoleAdmin}}
)

func newTestService(store Store) *Service {
	return NewService(store, identity.DefaultPolicy(), nil)
}

func TestCreateDefectValidation(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	base := CreateDefectInput{
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-1",
		Description:        "brake pad worn",
		Severity:           SeverityMajor,
		IdentifiedBy:       "u-mech",
	}

	d, err := svc.CreateDefect(ctx, mechanic, base)
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}
	if d.ID == "" || d.Status != StatusOpen || d.CarriedOverCount != 0 {
		t.Fatalf("unexpected new defect: %+v", d)
	}
	if d.IdentifiedAt.IsZero() {
		t.Fatalf("expected identifiedAt defaulted")
	}

	bad := base
	bad.Description = "  "
	if _, err := svc.CreateDefect(ctx, mechanic, bad); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid input for blank description, got %v", err)
	}

	bad = base
	bad.Severity = "catastrophic"
	if _, err := svc.CreateDefect(ctx, mechanic, bad); !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid input for unknown severity, got %v", err)
	}

	if _, err := svc.CreateDefect(ctx, identity.Actor{}, base); !errs.IsKind(err, errs.KindUnauthorized) {
		t.Fatalf("expected unauthorized for anonymous actor, got %v", err)
	}
}

func TestUpdateStatusFlow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	d, err := svc.CreateDefect(ctx, mechanic, CreateDefectInput{
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-1",
		Description:        "headlight out",
		Severity:           SeverityMinor,
		IdentifiedBy:       "u-mech",
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}

	got, err := svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{
		DefectID:        d.ID,
		NewStatus:       StatusCorrected,
		CorrectionNotes: "bulb replaced",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusCorrected || got.CorrectedBy != mechanic.ID || got.CorrectedAt == nil {
		t.Fatalf("unexpected corrected defect: %+v", got)
	}

	// 重复提交同一状态：冲突
	_, err = svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{DefectID: d.ID, NewStatus: StatusCorrected})
	if !errs.IsKind(err, errs.KindInvalidTransition) {
		t.Fatalf("expected invalid transition for same status, got %v", err)
	}

	// 重开后整改字段被清
	got, err = svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{DefectID: d.ID, NewStatus: StatusOpen})
	if err != nil {
		t.Fatalf("UpdateStatus reopen: %v", err)
	}
	if got.CorrectedBy != "" || got.CorrectedAt != nil || got.CorrectionNotes != "" {
		t.Fatalf("expected correction fields cleared: %+v", got)
	}

	_, err = svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{DefectID: "nope", NewStatus: StatusOpen})
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUnresolvedExcludesCorrected(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()
	base := time.Now()

	mk := func(desc string, status Status, offset time.Duration) {
		d, err := svc.CreateDefect(ctx, mechanic, CreateDefectInput{
			VehicleID:          "veh-1",
			OriginInspectionID: "insp-1",
			Description:        desc,
			Severity:           SeverityMajor,
			IdentifiedBy:       "u-mech",
			IdentifiedAt:       base.Add(offset),
		})
		if err != nil {
			t.Fatalf("CreateDefect %s: %v", desc, err)
		}
		if status != StatusOpen {
			in := UpdateStatusInput{DefectID: d.ID, NewStatus: status}
			if status == StatusDeferred {
				in.DeferralReason = "parts pending"
				in.DeferralApprover = "sup-1"
			}
			if _, err := svc.UpdateStatus(ctx, mechanic, in); err != nil {
				t.Fatalf("UpdateStatus %s: %v", desc, err)
			}
		}
	}

	mk("second", StatusOpen, 2*time.Minute)
	mk("first", StatusInProgress, 1*time.Minute)
	mk("fixed", StatusCorrected, 0)
	mk("deferred", StatusDeferred, 3*time.Minute)

	defects, err := svc.ListUnresolved(ctx, "veh-1")
	if err != nil {
		t.Fatalf("ListUnresolved: %v", err)
	}
	for _, d := range defects {
		if d.Status == StatusCorrected {
			t.Fatalf("corrected defect leaked into unresolved list: %+v", d)
		}
	}
	if len(defects) != 3 {
		t.Fatalf("expected 3 unresolved (deferred counts), got %d", len(defects))
	}
	if defects[0].Description != "first" || defects[1].Description != "second" {
		t.Fatalf("expected identified_at ascending order, got %q then %q",
			defects[0].Description, defects[1].Description)
	}
}

func TestHardDeleteAdminOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	d, err := svc.CreateDefect(ctx, mechanic, CreateDefectInput{
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-1",
		Description:        "test record",
		Severity:           SeverityMinor,
		IdentifiedBy:       "u-mech",
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}

	if err := svc.HardDelete(ctx, mechanic, d.ID); !errs.IsKind(err, errs.KindUnauthorized) {
		t.Fatalf("expected unauthorized for mechanic, got %v", err)
	}
	if _, err := svc.Get(ctx, d.ID); err != nil {
		t.Fatalf("defect should survive denied delete: %v", err)
	}

	if err := svc.HardDelete(ctx, admin, d.ID); err != nil {
		t.Fatalf("HardDelete as admin: %v", err)
	}
	if _, err := svc.Get(ctx, d.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeferredDefectNeedsApproval(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	d, err := svc.CreateDefect(ctx, mechanic, CreateDefectInput{
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-1",
		Description:        "mirror crack",
		Severity:           SeverityMinor,
		IdentifiedBy:       "u-mech",
	})
	if err != nil {
		t.Fatalf("CreateDefect: %v", err)
	}

	_, err = svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{DefectID: d.ID, NewStatus: StatusDeferred})
	if !errs.IsKind(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid input without approver, got %v", err)
	}

	got, err := svc.UpdateStatus(ctx, mechanic, UpdateStatusInput{
		DefectID:         d.ID,
		NewStatus:        StatusDeferred,
		DeferralReason:   "cosmetic, parts pending",
		DeferralApprover: "sup-1",
	})
	if err != nil {
		t.Fatalf("UpdateStatus defer: %v", err)
	}
	if got.DeferralApprover != "sup-1" {
		t.Fatalf("approver not recorded: %+v", got)
	}
}
