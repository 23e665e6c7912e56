// Package history persists sweep outcomes to Postgres. The store is optional
// and strictly best effort: a sweep never fails because its history row could
// not be written.
package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"adjanitor/lifecycle"
)

type Store struct {
	dsn            string
	ConnectionPool *pgxpool.Pool
}

func NewStore(dsn string) *Store {
	return &Store{dsn: dsn}
}

// Connect opens the connection pool and creates the schema if it is missing.
func (s *Store) Connect(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("unable to connect to history database: %w", err)
	}
	s.ConnectionPool = pool

	if _, err := s.ConnectionPool.Exec(ctx, createSweepsTable); err != nil {
		return fmt.Errorf("creating sweeps table: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.ConnectionPool != nil {
		s.ConnectionPool.Close()
	}
}

// RecordSweep inserts one row for a completed sweep.
func (s *Store) RecordSweep(ctx context.Context, sum *lifecycle.Summary) error {
	_, err := s.ConnectionPool.Exec(ctx, insertSweep,
		sum.RunID,
		sum.Started,
		sum.Finished,
		sum.DryRun,
		sum.Scanned,
		sum.ScanWarnings,
		sum.Quarantined,
		sum.Ignored,
		sum.Reconciled,
		sum.Reaped,
		sum.Errors,
	)
	if err != nil {
		return fmt.Errorf("insert sweep %s failed: %w", sum.RunID, err)
	}
	return nil
}
