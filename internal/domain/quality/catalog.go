package quality

// Static reference data shared by all tenants. The tables are package-private
// so nobody can mutate them; access goes through the lookup helpers.

var allCategories = [...]RejectionCategory{
	CategoryDefect,
	CategoryDamage,
	CategoryWrongSpecification,
	CategoryExpired,
	CategoryContamination,
	CategoryOther,
}

// allowedActions lists the dispositions that make sense per outcome. A passed
// lot cannot be scrapped through this workflow and a failed lot cannot be
// blanket-accepted; a partial pass leaves everything on the table.
var allowedActions = map[Result][]Action{
	ResultPassed: {ActionAccept, ActionUseAsIs},
	ResultFailed: {ActionReject, ActionReworkRequired, ActionScrap, ActionReturnToSupplier},
	ResultPartiallyPassed: {
		ActionAccept, ActionReject, ActionReworkRequired,
		ActionScrap, ActionReturnToSupplier, ActionUseAsIs,
	},
	ResultConditional: {ActionAccept, ActionReworkRequired, ActionUseAsIs},
}

// Categories returns the rejection taxonomy in display order.
func Categories() []RejectionCategory {
	out := make([]RejectionCategory, len(allCategories))
	copy(out, allCategories[:])
	return out
}

// AllowedActions returns the dispositions permitted for an outcome.
func AllowedActions(r Result) []Action {
	src := allowedActions[r]
	out := make([]Action, len(src))
	copy(out, src)
	return out
}

// ActionAllowed reports whether a disposition is permitted for an outcome.
func ActionAllowed(r Result, a Action) bool {
	for _, allowed := range allowedActions[r] {
		if allowed == a {
			return true
		}
	}
	return false
}
