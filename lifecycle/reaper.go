package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"adjanitor/auditlog"
)

// Reaper permanently deletes quarantined accounts that have been disabled for
// at least the retention period. Deletion is irrecoverable and removes any
// child objects nested under the account.
type Reaper struct {
	Directory      Directory
	QuarantinePath string
	RetentionDays  int
	Audit          auditlog.Sink
	DryRun         bool

	Now func() time.Time
}

// Reap enumerates the quarantine container, filters to disabled accounts past
// retention and deletes each one with its children. Eligibility is always
// recomputed from the change timestamp; the stamped description is never
// consulted. Per-account failures are logged and skipped, leaving the account
// for the next sweep to retry.
func (r *Reaper) Reap(ctx context.Context) (deleted []string, failed int, err error) {
	accounts, err := r.Directory.Search(ctx, r.QuarantinePath, ScopeOneLevel, Query{})
	if err != nil {
		r.audit(fmt.Sprintf("ERROR: failed to query quarantine container %s: %v", r.QuarantinePath, err))
		return nil, 0, fmt.Errorf("querying quarantine container: %w", err)
	}

	now := r.now()
	for _, acct := range accounts {
		if acct.Enabled {
			continue
		}
		if AgeInDays(now, acct.LastChanged) < r.RetentionDays {
			continue
		}
		if r.DryRun {
			deleted = append(deleted, acct.Name)
			continue
		}
		if err := r.Directory.Delete(ctx, acct, true); err != nil {
			failed++
			r.audit(fmt.Sprintf("ERROR: failed to delete %s: %v", acct.Name, err))
			continue
		}
		deleted = append(deleted, acct.Name)
	}

	switch {
	case len(deleted) == 0:
		r.audit("no quarantined machine accounts past retention")
	case r.DryRun:
		r.audit(fmt.Sprintf("DRY-RUN: would delete accounts past %d day retention: %s",
			r.RetentionDays, strings.Join(deleted, ", ")))
	default:
		r.audit(fmt.Sprintf("deleted accounts past %d day retention: %s",
			r.RetentionDays, strings.Join(deleted, ", ")))
	}
	return deleted, failed, nil
}

// AgeInDays is the whole-day truncation of the elapsed time since then. An
// account changed exactly the retention period ago is already eligible.
func AgeInDays(now, then time.Time) int {
	if then.IsZero() || now.Before(then) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}

func (r *Reaper) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reaper) audit(entry string) {
	if r.Audit != nil {
		r.Audit.Append(entry)
	}
}
