package core

// The item lifecycle is a short DAG: the main line
//
//	INTAKE → STORED → LISTED → SOLD
//
// advances one step at a time, and the two absorbing side branches
// RETURNED and DISCARDED are reachable from any non-terminal state.
// SOLD, RETURNED and DISCARDED are terminal.

// AllStatuses lists every status in main-line order, side branches last.
// Used for validation messages and zero-filled report rows.
var AllStatuses = []Status{
	StatusIntake,
	StatusStored,
	StatusListed,
	StatusSold,
	StatusReturned,
	StatusDiscarded,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIntake, StatusStored, StatusListed, StatusSold, StatusReturned, StatusDiscarded:
		return true
	}
	return false
}

// Terminal reports whether s is absorbing: no transition leaves it.
func (s Status) Terminal() bool {
	switch s {
	case StatusSold, StatusReturned, StatusDiscarded:
		return true
	}
	return false
}

// CanTransition reports whether an item may move from one status straight
// to another. Self-transitions are not transitions; idempotent re-applies
// are handled by the operations themselves.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	switch to {
	case StatusReturned, StatusDiscarded:
		return true
	case StatusStored:
		return from == StatusIntake
	case StatusListed:
		return from == StatusStored
	case StatusSold:
		return from == StatusListed
	}
	// INTAKE is the initial state only; nothing re-enters it.
	return false
}

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", Validationf("unknown status %q", s)
	}
	return st, nil
}
