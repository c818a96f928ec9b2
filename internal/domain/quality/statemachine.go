package quality

// op identifies a lifecycle transition requested on a record. Field setters
// and annotations are not transitions; they only check Status.Terminal.
type op int

const (
	opStart op = iota + 1
	opComplete
	opCancel
)

func (o op) String() string {
	switch o {
	case opStart:
		return "start inspection"
	case opComplete:
		return "complete inspection"
	case opCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// transitions is the full lifecycle table. Anything absent here is illegal:
//
//	pending     -> in_progress (start) | cancelled (cancel)
//	in_progress -> completed (complete) | cancelled (cancel)
//	completed, cancelled: terminal
var transitions = map[Status]map[op]Status{
	StatusPending: {
		opStart:  StatusInProgress,
		opCancel: StatusCancelled,
	},
	StatusInProgress: {
		opComplete: StatusCompleted,
		opCancel:   StatusCancelled,
	},
}

// nextStatus resolves the target state for an operation, or an
// ErrInvalidOperation naming both sides when the table has no entry.
func nextStatus(from Status, o op) (Status, error) {
	if to, ok := transitions[from][o]; ok {
		return to, nil
	}
	return 0, invalidOpf("cannot %s from status %s", o, from)
}
