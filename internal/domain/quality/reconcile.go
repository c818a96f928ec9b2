package quality

import "github.com/shopspring/decimal"

// Pure quantity/score checks used by CompleteInspection before any field is
// touched. Inspection classifies existing stock, it never creates or destroys
// it, so the dispositioned sum can never exceed what was inspected.

var scoreMax = decimal.NewFromInt(100)

func checkQuantities(inspected, accepted, rejected decimal.Decimal) error {
	if accepted.IsNegative() {
		return validationf("accepted quantity %s is negative", accepted)
	}
	if rejected.IsNegative() {
		return validationf("rejected quantity %s is negative", rejected)
	}
	if accepted.Add(rejected).GreaterThan(inspected) {
		return validationf("accepted %s + rejected %s exceeds inspected quantity %s",
			accepted, rejected, inspected)
	}
	return nil
}

// checkScore accepts nil as "not scored".
func checkScore(score *decimal.Decimal) error {
	if score == nil {
		return nil
	}
	if score.IsNegative() || score.GreaterThan(scoreMax) {
		return validationf("quality score %s outside [0,100]", score)
	}
	return nil
}

// recommendFor maps an inspection outcome to the default disposition. The
// applied action may diverge later, but then ApplyAction demands an
// explanation.
func recommendFor(r Result) (Action, error) {
	switch r {
	case ResultPassed:
		return ActionAccept, nil
	case ResultFailed:
		return ActionReject, nil
	case ResultPartiallyPassed:
		return ActionReworkRequired, nil
	case ResultConditional:
		return ActionUseAsIs, nil
	default:
		return 0, validationf("result %s is not a completion outcome", r)
	}
}
