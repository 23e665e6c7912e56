package lifecycle

import (
	"context"
	"time"
)

// Scope selects how deep a directory search reaches below its root.
type Scope int

const (
	// ScopeSubtree searches the root and everything below it.
	ScopeSubtree Scope = iota
	// ScopeOneLevel searches only the immediate children of the root.
	ScopeOneLevel
)

func (s Scope) String() string {
	if s == ScopeOneLevel {
		return "onelevel"
	}
	return "subtree"
}

// Query narrows a directory search over machine accounts. Zero fields do not
// constrain.
type Query struct {
	// Enabled, when non-nil, matches only accounts with that status flag.
	Enabled *bool

	// InactiveSince, when non-zero, matches accounts whose last activity is
	// at or before the given instant, including accounts that have never
	// been active at all.
	InactiveSince time.Time
}

// EnabledOnly and DisabledOnly are ready-made status predicates.
func EnabledOnly() *bool  { b := true; return &b }
func DisabledOnly() *bool { b := false; return &b }

// Directory is the narrow view of the directory service the sweep needs.
// The production implementation speaks LDAP; tests use an in-memory fake.
// Mutating calls are best effort with no transactional coupling between them.
type Directory interface {
	// Search returns the machine accounts under root matching q, in the
	// order the directory yields them.
	Search(ctx context.Context, root string, scope Scope, q Query) ([]MachineAccount, error)

	// Move relocates the account into the named container and returns the
	// account at its new path. The original object is unchanged on error.
	Move(ctx context.Context, account MachineAccount, container string) (MachineAccount, error)

	// SetEnabled flips the account status flag.
	SetEnabled(ctx context.Context, account MachineAccount, enabled bool) error

	// SetDescription replaces the free-text annotation on the account.
	SetDescription(ctx context.Context, account MachineAccount, text string) error

	// Delete removes the account object. With recursive set, any child
	// objects nested below it are removed first.
	Delete(ctx context.Context, account MachineAccount, recursive bool) error
}
