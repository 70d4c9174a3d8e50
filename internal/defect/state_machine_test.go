package defect

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusOpen, StatusCorrected) {
		t.Fatalf("expected open -> corrected allowed")
	}
	if !CanTransition(StatusCorrected, StatusOpen) {
		t.Fatalf("expected corrected -> open allowed (reopen)")
	}
	if CanTransition(StatusOpen, StatusOpen) {
		t.Fatalf("expected same-status transition rejected")
	}
	if CanTransition(StatusOpen, Status("bogus")) {
		t.Fatalf("expected unknown target rejected")
	}
}

func TestApplyTransitionCorrected(t *testing.T) {
	d := &Defect{Status: StatusOpen}
	now := time.Now()

	err := ApplyTransition(d, StatusCorrected, TransitionInput{
		Actor:           "mech-1",
		Now:             now,
		CorrectionNotes: "replaced brake pads",
	})
	if err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if d.Status != StatusCorrected {
		t.Fatalf("expected corrected, got %s", d.Status)
	}
	if d.CorrectedBy != "mech-1" {
		t.Fatalf("expected correctedBy stamped, got %q", d.CorrectedBy)
	}
	if d.CorrectedAt == nil || !d.CorrectedAt.Equal(now) {
		t.Fatalf("expected correctedAt defaulted to now, got %v", d.CorrectedAt)
	}
	if d.CorrectionNotes != "replaced brake pads" {
		t.Fatalf("notes mismatch: %q", d.CorrectionNotes)
	}
}

func TestApplyTransitionExplicitCorrectedAt(t *testing.T) {
	d := &Defect{Status: StatusInProgress}
	now := time.Now()
	fixed := now.Add(-2 * time.Hour)

	err := ApplyTransition(d, StatusCorrected, TransitionInput{
		Actor:       "mech-1",
		Now:         now,
		CorrectedAt: &fixed,
	})
	if err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if d.CorrectedAt == nil || !d.CorrectedAt.Equal(fixed) {
		t.Fatalf("expected explicit correctedAt honored, got %v", d.CorrectedAt)
	}
}

func TestApplyTransitionReopenClearsCorrection(t *testing.T) {
	now := time.Now()
	d := &Defect{
		Status:          StatusCorrected,
		CorrectedBy:     "mech-1",
		CorrectedAt:     &now,
		CorrectionNotes: "done",
	}

	if err := ApplyTransition(d, StatusOpen, TransitionInput{Actor: "mech-2", Now: now}); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if d.CorrectedBy != "" || d.CorrectedAt != nil || d.CorrectionNotes != "" {
		t.Fatalf("expected correction fields cleared on reopen: %+v", d)
	}
}

func TestApplyTransitionDeferred(t *testing.T) {
	d := &Defect{Status: StatusOpen}
	now := time.Now()

	// 缺 reason/approver 必须拒绝，且缺陷保持原状
	err := ApplyTransition(d, StatusDeferred, TransitionInput{Actor: "mech-1", Now: now})
	if err == nil {
		t.Fatalf("expected deferral without reason/approver to fail")
	}
	if d.Status != StatusOpen {
		t.Fatalf("expected defect unchanged after rejected transition, got %s", d.Status)
	}

	err = ApplyTransition(d, StatusDeferred, TransitionInput{
		Actor:            "mech-1",
		Now:              now,
		DeferralReason:   "parts on backorder",
		DeferralApprover: "sup-1",
	})
	if err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if d.DeferralReason == "" || d.DeferralApprover == "" {
		t.Fatalf("expected deferral fields set: %+v", d)
	}

	// 离开 deferred 要清空暂缓字段
	if err := ApplyTransition(d, StatusInProgress, TransitionInput{Actor: "mech-1", Now: now}); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if d.DeferralReason != "" || d.DeferralApprover != "" {
		t.Fatalf("expected deferral fields cleared: %+v", d)
	}
}
