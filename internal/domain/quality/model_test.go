package quality

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	testTenant = uuid.MustParse("4f9c0f9a-9a53-4b2e-8f5e-0f1c7c9f2d11")
	t0         = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	t1         = t0.Add(30 * time.Minute)
	t2         = t0.Add(2 * time.Hour)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newPendingRecord(t *testing.T) *InspectionRecord {
	t.Helper()
	rec, err := NewInspectionRecord(testTenant, "QC-2026-000001", 42, TypeIncoming, dec("100"), "pcs", t0)
	if err != nil {
		t.Fatalf("NewInspectionRecord: %v", err)
	}
	return rec
}

func newInProgressRecord(t *testing.T) *InspectionRecord {
	t.Helper()
	rec := newPendingRecord(t)
	if err := rec.StartInspection("Jane Doe", nil, t1); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	return rec
}

func TestNewInspectionRecord(t *testing.T) {
	rec := newPendingRecord(t)

	if rec.Status != StatusPending {
		t.Errorf("expected status pending, got %s", rec.Status)
	}
	if rec.Result != ResultPending {
		t.Errorf("expected result pending, got %s", rec.Result)
	}
	if !rec.AcceptedQuantity.IsZero() || !rec.RejectedQuantity.IsZero() {
		t.Errorf("expected zero quantities, got accepted=%s rejected=%s",
			rec.AcceptedQuantity, rec.RejectedQuantity)
	}
	if !rec.CreatedDate.Equal(t0) || !rec.UpdatedDate.Equal(t0) {
		t.Errorf("expected lifecycle timestamps set to creation time")
	}
}

func TestNewInspectionRecord_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		tenant   uuid.UUID
		qcNumber string
		product  int64
		qcType   QCType
		qty      decimal.Decimal
		unit     string
	}{
		{"nil tenant", uuid.Nil, "QC-2026-000001", 42, TypeIncoming, dec("100"), "pcs"},
		{"empty qc number", testTenant, "  ", 42, TypeIncoming, dec("100"), "pcs"},
		{"missing product", testTenant, "QC-2026-000001", 0, TypeIncoming, dec("100"), "pcs"},
		{"bad qc type", testTenant, "QC-2026-000001", 42, QCType(99), dec("100"), "pcs"},
		{"zero quantity", testTenant, "QC-2026-000001", 42, TypeIncoming, dec("0"), "pcs"},
		{"negative quantity", testTenant, "QC-2026-000001", 42, TypeIncoming, dec("-5"), "pcs"},
		{"empty unit", testTenant, "QC-2026-000001", 42, TypeIncoming, dec("100"), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewInspectionRecord(tc.tenant, tc.qcNumber, tc.product, tc.qcType, tc.qty, tc.unit, t0)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLifecycle_PassedFlow(t *testing.T) {
	rec := newPendingRecord(t)

	if err := rec.StartInspection("Jane Doe", nil, t1); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s", rec.Status)
	}
	if rec.InspectorName != "Jane Doe" {
		t.Errorf("inspector name not recorded")
	}

	err := rec.CompleteInspection(ResultPassed, dec("100"), dec("0"), decPtr("98"), "A", t2)
	if err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	if rec.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", rec.Status)
	}
	if rec.Result != ResultPassed {
		t.Errorf("expected passed, got %s", rec.Result)
	}
	if rec.RecommendedAction != ActionAccept {
		t.Errorf("expected recommended accept, got %s", rec.RecommendedAction)
	}
	if rec.QualityGrade != "A" {
		t.Errorf("expected grade A, got %q", rec.QualityGrade)
	}
	if !rec.UpdatedDate.Equal(t2) {
		t.Errorf("expected updated date to advance")
	}
}

func TestLifecycle_FailedFlowWithDisposition(t *testing.T) {
	rec := newInProgressRecord(t)

	err := rec.CompleteInspection(ResultFailed, dec("0"), dec("100"), decPtr("10"), "F", t2)
	if err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	if rec.RecommendedAction != ActionReject {
		t.Fatalf("expected recommended reject, got %s", rec.RecommendedAction)
	}

	if err := rec.SetRejection("Cracked casing", CategoryDefect, t2); err != nil {
		t.Fatalf("SetRejection after completion: %v", err)
	}
	if rec.RejectionCategory == nil || *rec.RejectionCategory != CategoryDefect {
		t.Errorf("rejection category not recorded")
	}

	if err := rec.ApplyAction(ActionReject, "Returned to supplier", t2); err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if rec.AppliedAction == nil || *rec.AppliedAction != ActionReject {
		t.Errorf("applied action not recorded")
	}
	if rec.ActionDate == nil || !rec.ActionDate.Equal(t2) {
		t.Errorf("action date not recorded")
	}
}

func TestCompleteInspection_Guards(t *testing.T) {
	testCases := []struct {
		name     string
		result   Result
		accepted string
		rejected string
		score    *decimal.Decimal
		wantErr  error
	}{
		{"conservation violated", ResultPassed, "60", "50", nil, ErrValidation},
		{"negative accepted", ResultPassed, "-1", "0", nil, ErrValidation},
		{"negative rejected", ResultPassed, "0", "-1", nil, ErrValidation},
		{"score above 100", ResultPassed, "100", "0", decPtr("100.5"), ErrValidation},
		{"score below 0", ResultPassed, "100", "0", decPtr("-0.1"), ErrValidation},
		{"pending is not an outcome", ResultPending, "100", "0", nil, ErrValidation},
		{"partial disposition ok", ResultPartiallyPassed, "60", "30", decPtr("55"), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newInProgressRecord(t)
			before := *rec

			err := rec.CompleteInspection(tc.result, dec(tc.accepted), dec(tc.rejected), tc.score, "", t2)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if *rec != before {
				t.Errorf("record mutated by a rejected operation")
			}
		})
	}
}

func TestCompleteInspection_OnlyFromInProgress(t *testing.T) {
	pending := newPendingRecord(t)
	err := pending.CompleteInspection(ResultPassed, dec("100"), dec("0"), nil, "", t2)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("complete from pending: expected ErrInvalidOperation, got %v", err)
	}

	done := newInProgressRecord(t)
	if err := done.CompleteInspection(ResultPassed, dec("100"), dec("0"), nil, "", t2); err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	err = done.CompleteInspection(ResultFailed, dec("0"), dec("100"), nil, "", t2)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("complete twice: expected ErrInvalidOperation, got %v", err)
	}
}

func TestApplyAction_Guards(t *testing.T) {
	t.Run("before completion", func(t *testing.T) {
		rec := newInProgressRecord(t)
		err := rec.ApplyAction(ActionAccept, "", t2)
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation, got %v", err)
		}
	})

	t.Run("divergence requires description", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultFailed, dec("0"), dec("100"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		err := rec.ApplyAction(ActionScrap, "", t2)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if err := rec.ApplyAction(ActionScrap, "beyond repair", t2); err != nil {
			t.Errorf("divergence with description should succeed: %v", err)
		}
	})

	t.Run("recommendation needs no description", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultFailed, dec("0"), dec("100"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		if err := rec.ApplyAction(ActionReject, "", t2); err != nil {
			t.Errorf("recommended action should not need a description: %v", err)
		}
	})

	t.Run("action outside catalog", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultPassed, dec("100"), dec("0"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		err := rec.ApplyAction(ActionScrap, "why would you", t2)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("scrapping a passed lot: expected ErrValidation, got %v", err)
		}
	})

	t.Run("reapply overwrites", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultFailed, dec("0"), dec("100"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		if err := rec.ApplyAction(ActionReject, "", t2); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		later := t2.Add(time.Hour)
		if err := rec.ApplyAction(ActionReturnToSupplier, "supplier agreed to take it back", later); err != nil {
			t.Fatalf("second apply: %v", err)
		}
		if *rec.AppliedAction != ActionReturnToSupplier {
			t.Errorf("expected second disposition to win")
		}
		if !rec.ActionDate.Equal(later) {
			t.Errorf("expected action date to follow the overwrite")
		}
	})
}

func TestCancel(t *testing.T) {
	t.Run("from pending", func(t *testing.T) {
		rec := newPendingRecord(t)
		if err := rec.Cancel("Duplicate entry", t1); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if rec.Status != StatusCancelled {
			t.Errorf("expected cancelled, got %s", rec.Status)
		}
		if rec.InternalNotes != "cancelled: Duplicate entry" {
			t.Errorf("cancellation reason not recorded, got %q", rec.InternalNotes)
		}

		err := rec.StartInspection("Jane Doe", nil, t2)
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("start after cancel: expected ErrInvalidOperation, got %v", err)
		}
	})

	t.Run("from in progress", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.Cancel("wrong lot sampled", t2); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
	})

	t.Run("completed is never cancellable", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultPassed, dec("100"), dec("0"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		err := rec.Cancel("changed my mind", t2)
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation, got %v", err)
		}
	})

	t.Run("empty reason", func(t *testing.T) {
		rec := newPendingRecord(t)
		err := rec.Cancel("  ", t1)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("reason appends to existing notes", func(t *testing.T) {
		rec := newPendingRecord(t)
		if err := rec.SetInternalNotes("awaiting paperwork", t0); err != nil {
			t.Fatalf("SetInternalNotes: %v", err)
		}
		if err := rec.Cancel("supplier recalled the lot", t1); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		want := "awaiting paperwork\ncancelled: supplier recalled the lot"
		if rec.InternalNotes != want {
			t.Errorf("expected %q, got %q", want, rec.InternalNotes)
		}
	})
}

func TestSetRejection(t *testing.T) {
	t.Run("requires both fields", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.SetRejection("", CategoryDefect, t1); !errors.Is(err, ErrValidation) {
			t.Errorf("empty reason: expected ErrValidation, got %v", err)
		}
		if err := rec.SetRejection("bad weld", RejectionCategory(42), t1); !errors.Is(err, ErrValidation) {
			t.Errorf("bad category: expected ErrValidation, got %v", err)
		}
	})

	t.Run("blocked on cancelled records", func(t *testing.T) {
		rec := newPendingRecord(t)
		if err := rec.Cancel("duplicate", t1); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		err := rec.SetRejection("bad weld", CategoryDefect, t2)
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation, got %v", err)
		}
	})
}

func TestSetters(t *testing.T) {
	t.Run("idempotent except updated date", func(t *testing.T) {
		rec := newPendingRecord(t)
		if err := rec.SetInspectionNotes("looks fine", t1); err != nil {
			t.Fatalf("SetInspectionNotes: %v", err)
		}
		first := *rec

		later := t1.Add(time.Minute)
		if err := rec.SetInspectionNotes("looks fine", later); err != nil {
			t.Fatalf("SetInspectionNotes again: %v", err)
		}
		second := *rec
		second.UpdatedDate = first.UpdatedDate
		if first != second {
			t.Errorf("repeated setter changed more than the updated date")
		}
		if !rec.UpdatedDate.Equal(later) {
			t.Errorf("updated date did not advance")
		}
	})

	t.Run("sample quantity bounds", func(t *testing.T) {
		rec := newPendingRecord(t)
		if err := rec.SetSampleQuantity(decPtr("100.0001"), t1); !errors.Is(err, ErrValidation) {
			t.Errorf("sample above inspected: expected ErrValidation, got %v", err)
		}
		if err := rec.SetSampleQuantity(decPtr("-1"), t1); !errors.Is(err, ErrValidation) {
			t.Errorf("negative sample: expected ErrValidation, got %v", err)
		}
		if err := rec.SetSampleQuantity(decPtr("10"), t1); err != nil {
			t.Errorf("valid sample rejected: %v", err)
		}
		if err := rec.SetSampleQuantity(nil, t1); err != nil {
			t.Errorf("clearing sample rejected: %v", err)
		}
		if rec.SampleQuantity != nil {
			t.Errorf("expected sample cleared")
		}
	})

	t.Run("blocked in terminal states", func(t *testing.T) {
		rec := newInProgressRecord(t)
		if err := rec.CompleteInspection(ResultPassed, dec("100"), dec("0"), nil, "", t2); err != nil {
			t.Fatalf("CompleteInspection: %v", err)
		}
		setters := map[string]error{
			"lot":      rec.SetLotNumber("L-1", t2),
			"notes":    rec.SetInspectionNotes("x", t2),
			"location": rec.SetInspectionLocation("dock 3", t2),
			"standard": rec.SetInspectionStandard("ISO 2859-1", t2),
			"duration": rec.SetInspectionDuration(15, t2),
		}
		for name, err := range setters {
			if !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("%s setter on completed record: expected ErrInvalidOperation, got %v", name, err)
			}
		}
	})
}
