package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adjanitor/auditlog"
)

// Summary is the outcome of one full sweep.
type Summary struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time
	DryRun   bool

	Scanned      int // candidates returned by the scanner
	ScanWarnings int // unreachable search roots
	Quarantined  int // accounts fully through move+disable+annotate
	Ignored      int // candidates skipped by the exception list
	Reconciled   int // enabled-in-quarantine accounts re-disabled
	Reaped       int // accounts deleted past retention
	Errors       int // per-account failures across all stages
}

// Sweep runs the four lifecycle stages in order: scan, quarantine, reconcile,
// reap. One sweep is one linear synchronous pass; no stage failure short of a
// broken quarantine query stops the stages after it, and even that only skips
// the stage that could not read its input.
type Sweep struct {
	Scanner      *Scanner
	Transitioner *Transitioner
	Reconciler   *Reconciler
	Reaper       *Reaper
	Audit        auditlog.Sink
	Logger       *slog.Logger

	Now func() time.Time
}

// Run executes one sweep and returns its summary. The returned error is only
// ever a context cancellation; every directory-level failure is absorbed into
// the summary and the audit trail.
func (s *Sweep) Run(ctx context.Context) (*Summary, error) {
	now := s.now()
	sum := &Summary{
		RunID:   uuid.New(),
		Started: now(),
		DryRun:  s.Transitioner.DryRun,
	}
	log := s.logger().With("run_id", sum.RunID.String())
	log.Info("sweep started", "dry_run", sum.DryRun)

	candidates, warnings := s.Scanner.Scan(ctx)
	sum.Scanned = len(candidates)
	sum.ScanWarnings = len(warnings)
	for _, w := range warnings {
		log.Warn("search root skipped", "error", w)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	for _, tr := range s.Transitioner.Process(ctx, candidates) {
		switch {
		case tr.Ignored:
			sum.Ignored++
		case tr.Err != nil:
			sum.Errors++
			log.Warn("quarantine step failed",
				"account", tr.Account.Name, "reached", tr.State.String(), "error", tr.Err)
		default:
			sum.Quarantined++
		}
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	disabled, failed, err := s.Reconciler.Reconcile(ctx)
	sum.Reconciled = len(disabled)
	sum.Errors += failed
	if err != nil {
		sum.Errors++
		log.Warn("reconcile stage degraded", "error", err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	reaped, failed, err := s.Reaper.Reap(ctx)
	sum.Reaped = len(reaped)
	sum.Errors += failed
	if err != nil {
		sum.Errors++
		log.Warn("reap stage degraded", "error", err)
	}

	sum.Finished = now()
	s.auditSummary(sum)
	log.Info("sweep finished",
		"scanned", sum.Scanned,
		"quarantined", sum.Quarantined,
		"ignored", sum.Ignored,
		"reconciled", sum.Reconciled,
		"reaped", sum.Reaped,
		"errors", sum.Errors,
		"duration", sum.Finished.Sub(sum.Started).String(),
	)
	return sum, ctx.Err()
}

func (s *Sweep) auditSummary(sum *Summary) {
	if s.Audit == nil {
		return
	}
	prefix := "sweep"
	if sum.DryRun {
		prefix = "DRY-RUN: sweep"
	}
	s.Audit.Append(fmt.Sprintf("%s %s complete: %d scanned, %d quarantined, %d ignored, %d reconciled, %d reaped, %d errors",
		prefix, sum.RunID, sum.Scanned, sum.Quarantined, sum.Ignored, sum.Reconciled, sum.Reaped, sum.Errors))
}

func (s *Sweep) now() func() time.Time {
	if s.Now != nil {
		return s.Now
	}
	return time.Now
}

func (s *Sweep) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
