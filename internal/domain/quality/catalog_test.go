package quality

import "testing"

func TestActionAllowed(t *testing.T) {
	testCases := []struct {
		result Result
		action Action
		want   bool
	}{
		{ResultPassed, ActionAccept, true},
		{ResultPassed, ActionUseAsIs, true},
		{ResultPassed, ActionScrap, false},
		{ResultPassed, ActionReject, false},
		{ResultFailed, ActionReject, true},
		{ResultFailed, ActionScrap, true},
		{ResultFailed, ActionReturnToSupplier, true},
		{ResultFailed, ActionAccept, false},
		{ResultPartiallyPassed, ActionAccept, true},
		{ResultPartiallyPassed, ActionScrap, true},
		{ResultConditional, ActionUseAsIs, true},
		{ResultConditional, ActionScrap, false},
		{ResultPending, ActionAccept, false},
	}

	for _, tc := range testCases {
		t.Run(tc.result.String()+"/"+tc.action.String(), func(t *testing.T) {
			if got := ActionAllowed(tc.result, tc.action); got != tc.want {
				t.Errorf("ActionAllowed(%s, %s) = %v, want %v", tc.result, tc.action, got, tc.want)
			}
		})
	}
}

func TestCatalogCopies(t *testing.T) {
	// Returned slices must be copies; mutating them cannot poison the shared
	// reference data.
	cats := Categories()
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	cats[0] = CategoryOther
	if Categories()[0] != CategoryDefect {
		t.Errorf("Categories leaked internal storage")
	}

	acts := AllowedActions(ResultFailed)
	if len(acts) == 0 {
		t.Fatalf("expected actions for failed result")
	}
	acts[0] = ActionAccept
	if AllowedActions(ResultFailed)[0] == ActionAccept {
		t.Errorf("AllowedActions leaked internal storage")
	}
}

func TestEnumParsing(t *testing.T) {
	if _, err := ParseQCType("incoming"); err != nil {
		t.Errorf("ParseQCType: %v", err)
	}
	if _, err := ParseResult("partially_passed"); err != nil {
		t.Errorf("ParseResult: %v", err)
	}
	if _, err := ParseAction("return_to_supplier"); err != nil {
		t.Errorf("ParseAction: %v", err)
	}
	if _, err := ParseRejectionCategory("contamination"); err != nil {
		t.Errorf("ParseRejectionCategory: %v", err)
	}
	if _, err := ParseStatus("no_such_status"); err == nil {
		t.Errorf("expected error for unknown status")
	}
}
