package quality

import "fmt"

// QCType classifies when in the goods flow an inspection happens.
// Set at creation and never changed afterwards.
type QCType int

const (
	TypeIncoming QCType = iota + 1
	TypeInProcess
	TypeFinal
	TypeRandom
	TypeReturn
	TypeComplaint
)

func (t QCType) String() string {
	switch t {
	case TypeIncoming:
		return "incoming"
	case TypeInProcess:
		return "in_process"
	case TypeFinal:
		return "final"
	case TypeRandom:
		return "random"
	case TypeReturn:
		return "return"
	case TypeComplaint:
		return "complaint"
	default:
		return "unknown"
	}
}

// ParseQCType converts a wire string into a QCType. String forms live only
// at the API boundary; everything inside the package works with the enum.
func ParseQCType(s string) (QCType, error) {
	for t := TypeIncoming; t <= TypeComplaint; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown qc type %q", ErrValidation, s)
}

// Status is the lifecycle state of an inspection record.
type Status int

const (
	StatusPending Status = iota + 1
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further mutation of the record is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func ParseStatus(s string) (Status, error) {
	for st := StatusPending; st <= StatusCancelled; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Result is the outcome of a completed inspection. ResultPending until
// CompleteInspection runs.
type Result int

const (
	ResultPending Result = iota + 1
	ResultPassed
	ResultFailed
	ResultPartiallyPassed
	ResultConditional
)

func (r Result) String() string {
	switch r {
	case ResultPending:
		return "pending"
	case ResultPassed:
		return "passed"
	case ResultFailed:
		return "failed"
	case ResultPartiallyPassed:
		return "partially_passed"
	case ResultConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

func ParseResult(s string) (Result, error) {
	for r := ResultPending; r <= ResultConditional; r++ {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown result %q", ErrValidation, s)
}

// RejectionCategory groups the reasons stock gets rejected.
type RejectionCategory int

const (
	CategoryDefect RejectionCategory = iota + 1
	CategoryDamage
	CategoryWrongSpecification
	CategoryExpired
	CategoryContamination
	CategoryOther
)

func (c RejectionCategory) String() string {
	switch c {
	case CategoryDefect:
		return "defect"
	case CategoryDamage:
		return "damage"
	case CategoryWrongSpecification:
		return "wrong_specification"
	case CategoryExpired:
		return "expired"
	case CategoryContamination:
		return "contamination"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

func ParseRejectionCategory(s string) (RejectionCategory, error) {
	for c := CategoryDefect; c <= CategoryOther; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown rejection category %q", ErrValidation, s)
}

// Action is a disposition decision about inspected stock: the
// system-recommended one and the one actually applied share the type.
type Action int

const (
	ActionAccept Action = iota + 1
	ActionReject
	ActionReworkRequired
	ActionScrap
	ActionReturnToSupplier
	ActionUseAsIs
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionReject:
		return "reject"
	case ActionReworkRequired:
		return "rework_required"
	case ActionScrap:
		return "scrap"
	case ActionReturnToSupplier:
		return "return_to_supplier"
	case ActionUseAsIs:
		return "use_as_is"
	default:
		return "unknown"
	}
}

func ParseAction(s string) (Action, error) {
	for a := ActionAccept; a <= ActionUseAsIs; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrValidation, s)
}
