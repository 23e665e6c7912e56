package lifecycle

import (
	"context"
	"fmt"
	"time"

	"adjanitor/auditlog"
)

// dateLayout is used for the dates stamped into descriptions and audit lines.
const dateLayout = "02.01.2006"

// Transitioner moves candidate accounts into the quarantine container,
// disables them and stamps lifecycle metadata into their description. Each
// account is processed independently and best effort: a failed step stops
// that account's sequence without rollback, and the reconciler later heals
// the only unsafe residue.
type Transitioner struct {
	Directory      Directory
	QuarantinePath string
	Exceptions     ExceptionList
	RetentionDays  int
	Audit          auditlog.Sink
	DryRun         bool

	Now func() time.Time
}

// Process runs the quarantine sequence for every candidate and returns one
// Transition per account, in input order. An empty candidate set produces a
// single informational audit line.
func (t *Transitioner) Process(ctx context.Context, candidates []MachineAccount) []Transition {
	if len(candidates) == 0 {
		t.audit("no inactive machine accounts found to quarantine")
		return nil
	}

	transitions := make([]Transition, 0, len(candidates))
	for _, acct := range candidates {
		transitions = append(transitions, t.processOne(ctx, acct))
	}
	return transitions
}

func (t *Transitioner) processOne(ctx context.Context, acct MachineAccount) Transition {
	tr := Transition{Account: acct, State: StateLocated}

	// Defensive re-check: candidates normally arrive pre-filtered, but the
	// exception list is the last gate before any mutation.
	if t.Exceptions.Contains(acct.Name) {
		tr.Ignored = true
		t.audit(fmt.Sprintf("ignored %s: on the exception list", acct.Name))
		return tr
	}

	source := acct.Container()

	if t.DryRun {
		t.audit(fmt.Sprintf("DRY-RUN: would move %s from %s to %s and disable it (last activity %s)",
			acct.Name, source, t.QuarantinePath, lastActivity(acct)))
		return tr
	}

	moved, err := t.Directory.Move(ctx, acct, t.QuarantinePath)
	if err != nil {
		tr.Err = fmt.Errorf("move: %w", err)
		t.audit(fmt.Sprintf("ERROR: failed to move %s from %s to %s: %v",
			acct.Name, source, t.QuarantinePath, err))
		return tr
	}
	tr.Account = moved
	tr.State = StateMoved

	if err := t.Directory.SetEnabled(ctx, moved, false); err != nil {
		// Moved but still enabled: tolerated here, corrected by the next
		// reconciler pass.
		tr.Err = fmt.Errorf("disable: %w", err)
		t.audit(fmt.Sprintf("ERROR: failed to disable %s in %s: %v",
			moved.Name, t.QuarantinePath, err))
		return tr
	}
	tr.Account.Enabled = false
	tr.State = StateDisabled

	now := t.now()
	stampText := DescriptionStamp(now, t.RetentionDays)
	if err := t.Directory.SetDescription(ctx, tr.Account, stampText); err != nil {
		tr.Err = fmt.Errorf("annotate: %w", err)
		t.audit(fmt.Sprintf("ERROR: failed to annotate %s: %v", moved.Name, err))
		return tr
	}
	tr.Account.Description = stampText
	tr.State = StateAnnotated

	t.audit(fmt.Sprintf("moved %s from %s to %s and disabled it (last activity %s)",
		acct.Name, source, t.QuarantinePath, lastActivity(acct)))
	return tr
}

// DescriptionStamp builds the annotation written onto a quarantined account:
// the disable date and the earliest deletion date. The deletion date is
// informational only; the reaper recomputes eligibility from the change
// timestamp so a stale or edited description can never trigger a deletion.
func DescriptionStamp(now time.Time, retentionDays int) string {
	deleteAfter := now.AddDate(0, 0, retentionDays)
	return fmt.Sprintf("Disabled %s; eligible for deletion from %s",
		now.Format(dateLayout), deleteAfter.Format(dateLayout))
}

func lastActivity(acct MachineAccount) string {
	if acct.NeverActive() {
		return "never"
	}
	return acct.LastActivity.Format(dateLayout)
}

func (t *Transitioner) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Transitioner) audit(entry string) {
	if t.Audit != nil {
		t.Audit.Append(entry)
	}
}
