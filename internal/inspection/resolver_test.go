package inspection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/defect"
)

func TestResolveExcludesOwnOrigin(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seed(&defect.Defect{
		ID:                 "d-old",
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-0",
		Description:        "old defect",
		Severity:           defect.SeverityMajor,
		Status:             defect.StatusOpen,
		IdentifiedAt:       time.Now().Add(-time.Hour),
	})
	ledger.seed(&defect.Defect{
		ID:                 "d-own",
		VehicleID:          "veh-1",
		OriginInspectionID: "insp-new",
		Description:        "found just now",
		Severity:           defect.SeverityMinor,
		Status:             defect.StatusOpen,
		IdentifiedAt:       time.Now(),
	})

	res := NewResolver(ledger, nil).Resolve(context.Background(), "veh-1", "insp-new")
	if res.Degraded {
		t.Fatalf("unexpected degraded result")
	}
	if len(res.Entries) != 1 || res.Entries[0].DefectID != "d-old" {
		t.Fatalf("expected only the pre-existing defect carried, got %+v", res.Entries)
	}
	if res.Entries[0].CarriedFromInspectionID != "insp-0" {
		t.Fatalf("carry entry must reference origin inspection, got %s", res.Entries[0].CarriedFromInspectionID)
	}
	if len(res.Defects) != 1 || res.Defects[0].ID != "d-old" {
		t.Fatalf("defect entities must mirror entries: %+v", res.Defects)
	}
}

func TestResolveDegradesOnReadFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.listErr = fmt.Errorf("timeout")

	res := NewResolver(ledger, nil).Resolve(context.Background(), "veh-1", "insp-new")
	if !res.Degraded {
		t.Fatalf("expected degraded flag on read failure")
	}
	if len(res.Entries) != 0 || len(res.Defects) != 0 {
		t.Fatalf("degraded result must be empty: %+v", res)
	}
}
