package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"adjanitor/auditlog"
)

// Reconciler repairs drift in the quarantine container: an account in there
// must be disabled, and any enabled account it finds gets disabled again.
// Repeated runs against a healthy container are no-ops beyond the "none
// found" audit line.
type Reconciler struct {
	Directory      Directory
	QuarantinePath string
	Audit          auditlog.Sink
	DryRun         bool
}

// Reconcile disables every enabled account found in the quarantine container.
// It returns the names it disabled and the number of per-account failures.
// A failing disable is logged and does not block the remaining accounts; only
// the container query itself failing aborts the stage.
func (r *Reconciler) Reconcile(ctx context.Context) (disabled []string, failed int, err error) {
	accounts, err := r.Directory.Search(ctx, r.QuarantinePath, ScopeOneLevel, Query{Enabled: EnabledOnly()})
	if err != nil {
		r.audit(fmt.Sprintf("ERROR: failed to query quarantine container %s: %v", r.QuarantinePath, err))
		return nil, 0, fmt.Errorf("querying quarantine container: %w", err)
	}

	if len(accounts) == 0 {
		r.audit("no enabled machine accounts found in quarantine")
		return nil, 0, nil
	}

	for _, acct := range accounts {
		if r.DryRun {
			disabled = append(disabled, acct.Name)
			continue
		}
		if err := r.Directory.SetEnabled(ctx, acct, false); err != nil {
			failed++
			r.audit(fmt.Sprintf("ERROR: failed to re-disable %s: %v", acct.Name, err))
			continue
		}
		disabled = append(disabled, acct.Name)
	}

	if len(disabled) > 0 {
		verb := "re-disabled"
		if r.DryRun {
			verb = "DRY-RUN: would re-disable"
		}
		r.audit(fmt.Sprintf("%s enabled accounts found in quarantine: %s",
			verb, strings.Join(disabled, ", ")))
	}
	return disabled, failed, nil
}

func (r *Reconciler) audit(entry string) {
	if r.Audit != nil {
		r.Audit.Append(entry)
	}
}
