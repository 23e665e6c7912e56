package lifecycle

import (
	"strings"
	"time"
)

// MachineAccount is a computer object as seen by the sweep. It mirrors the
// handful of attributes the lifecycle stages read or write; everything else
// on the directory object is left alone.
type MachineAccount struct {
	// Name is the short identifier (the CN), unique within its container.
	Name string

	// DN is the current distinguished name, i.e. the object's full path.
	DN string

	// Enabled reports the account status flag.
	Enabled bool

	// LastActivity is the last observed authentication time. The zero value
	// means the account has never authenticated.
	LastActivity time.Time

	// LastChanged is the last metadata modification time, used to measure
	// how long a quarantined account has been disabled.
	LastChanged time.Time

	// Description is the free-text annotation on the object. The transitioner
	// stamps lifecycle metadata into it; nothing ever decides based on it.
	Description string
}

// NeverActive reports whether the account has no recorded authentication.
// Such accounts are treated as infinitely inactive.
func (a MachineAccount) NeverActive() bool {
	return a.LastActivity.IsZero()
}

// Container returns the parent path of the account, the DN with the leading
// RDN stripped. An account sitting at the root returns "".
func (a MachineAccount) Container() string {
	_, rest, found := strings.Cut(a.DN, ",")
	if !found {
		return ""
	}
	return rest
}

// TransitionState tracks how far through the quarantine sequence a single
// account got. The sequence is best effort: a later step failing leaves the
// account parked at the last state it reached, and the reconciler heals the
// only unsafe residue (moved but still enabled).
type TransitionState int

const (
	// StateLocated: candidate identified, nothing mutated yet.
	StateLocated TransitionState = iota
	// StateMoved: relocated into the quarantine container.
	StateMoved
	// StateDisabled: account flag cleared after the move.
	StateDisabled
	// StateAnnotated: description stamped with the lifecycle dates.
	StateAnnotated
)

func (s TransitionState) String() string {
	switch s {
	case StateLocated:
		return "located"
	case StateMoved:
		return "moved"
	case StateDisabled:
		return "disabled"
	case StateAnnotated:
		return "annotated"
	default:
		return "unknown"
	}
}

// Transition is the per-account outcome of one transitioner pass.
type Transition struct {
	Account MachineAccount
	State   TransitionState
	// Ignored is set when the exception list excluded the account before any
	// directory mutation.
	Ignored bool
	// Err holds the failure that stopped the sequence, if any. State reports
	// the last step that succeeded.
	Err error
}
