package quality

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckQuantities(t *testing.T) {
	testCases := []struct {
		name      string
		inspected string
		accepted  string
		rejected  string
		ok        bool
	}{
		{"all accepted", "100", "100", "0", true},
		{"all rejected", "100", "0", "100", true},
		{"split under total", "100", "60", "30", true},
		{"exactly the total", "100", "60", "40", true},
		{"sum exceeds total", "100", "60", "50", false},
		{"negative accepted", "100", "-1", "0", false},
		{"negative rejected", "100", "0", "-1", false},
		{"fractional units", "2.5", "1.25", "1.25", true},
		{"fractional overflow", "2.5", "1.3", "1.21", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkQuantities(dec(tc.inspected), dec(tc.accepted), dec(tc.rejected))
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCheckScore(t *testing.T) {
	testCases := []struct {
		name  string
		score *decimal.Decimal
		ok    bool
	}{
		{"not scored", nil, true},
		{"zero", decPtr("0"), true},
		{"hundred", decPtr("100"), true},
		{"mid", decPtr("72.5"), true},
		{"negative", decPtr("-0.01"), false},
		{"above hundred", decPtr("100.01"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkScore(tc.score)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRecommendFor(t *testing.T) {
	testCases := []struct {
		result Result
		want   Action
	}{
		{ResultPassed, ActionAccept},
		{ResultFailed, ActionReject},
		{ResultPartiallyPassed, ActionReworkRequired},
		{ResultConditional, ActionUseAsIs},
	}

	for _, tc := range testCases {
		t.Run(tc.result.String(), func(t *testing.T) {
			got, err := recommendFor(tc.result)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := recommendFor(ResultPending); !errors.Is(err, ErrValidation) {
		t.Errorf("pending result: expected ErrValidation, got %v", err)
	}
}
