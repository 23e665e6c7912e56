package lifecycle

import (
	"context"
	"fmt"
	"time"

	"adjanitor/auditlog"
)

// Scanner finds inactive, enabled machine accounts under the configured
// search roots, minus the exception list.
type Scanner struct {
	Directory      Directory
	Roots          []string
	Scope          Scope
	InactivityDays int
	Exceptions     ExceptionList
	Audit          auditlog.Sink

	// Now is the clock used to compute the inactivity cutoff. Defaults to
	// time.Now when nil.
	Now func() time.Time
}

// Scan queries every search root and returns the union of candidates in root
// order, then directory return order. An account whose last activity is
// exactly InactivityDays old is a candidate. A root that fails to answer is
// skipped and reported as a warning; the remaining roots are still searched.
func (s *Scanner) Scan(ctx context.Context) ([]MachineAccount, []error) {
	cutoff := s.now().AddDate(0, 0, -s.InactivityDays)
	q := Query{Enabled: EnabledOnly(), InactiveSince: cutoff}

	var candidates []MachineAccount
	var warnings []error
	for _, root := range s.Roots {
		found, err := s.Directory.Search(ctx, root, s.Scope, q)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("search root %s unreachable: %w", root, err))
			s.audit(fmt.Sprintf("WARNING: skipped search root %s: %v", root, err))
			continue
		}
		for _, acct := range found {
			if s.Exceptions.Contains(acct.Name) {
				continue
			}
			candidates = append(candidates, acct)
		}
	}
	return candidates, warnings
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scanner) audit(entry string) {
	if s.Audit != nil {
		s.Audit.Append(entry)
	}
}
