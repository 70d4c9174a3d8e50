package inspection

import (
	"testing"

	"github.com/FleetGuardian/FleetGuardian/internal/defect"
)

func TestEvaluateSafety(t *testing.T) {
	none := []defect.Defect{}
	minorOnly := []defect.Defect{
		{Severity: defect.SeverityMinor},
		{Severity: defect.SeverityMajor},
	}
	withCritical := []defect.Defect{
		{Severity: defect.SeverityMinor},
		{Severity: defect.SeverityCritical},
	}

	v := EvaluateSafety(true, none)
	if !v.SafeToOperate || v.ForcedStatus != "" {
		t.Fatalf("clean inspection should keep submitted verdict: %+v", v)
	}

	// 非 critical 缺陷不覆盖申报值
	v = EvaluateSafety(true, minorOnly)
	if !v.SafeToOperate || v.ForcedStatus != "" {
		t.Fatalf("major/minor defects must not force override: %+v", v)
	}
	v = EvaluateSafety(false, minorOnly)
	if v.SafeToOperate {
		t.Fatalf("inspector's unsafe verdict must be preserved: %+v", v)
	}

	// critical 无条件判不可运行并强制 requires_repair
	v = EvaluateSafety(true, withCritical)
	if v.SafeToOperate || v.ForcedStatus != StatusRequiresRepair {
		t.Fatalf("critical defect must force unsafe + requires_repair: %+v", v)
	}
}

func TestCanReview(t *testing.T) {
	if CanReview(StatusDraft) {
		t.Fatalf("draft must not be reviewable")
	}
	if CanReview(StatusApproved) {
		t.Fatalf("approved is terminal")
	}
	for _, s := range []Status{StatusSubmitted, StatusRequiresRepair, StatusReviewed} {
		if !CanReview(s) {
			t.Fatalf("expected %s reviewable", s)
		}
	}
}
