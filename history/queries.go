package history

// SQL statements for the sweep-history schema.

const (
	createSweepsTable = `
		CREATE TABLE IF NOT EXISTS sweeps (
			run_id        uuid PRIMARY KEY,
			started_at    timestamptz NOT NULL,
			finished_at   timestamptz NOT NULL,
			dry_run       boolean NOT NULL,
			scanned       integer NOT NULL,
			scan_warnings integer NOT NULL,
			quarantined   integer NOT NULL,
			ignored       integer NOT NULL,
			reconciled    integer NOT NULL,
			reaped        integer NOT NULL,
			errors        integer NOT NULL
		)`

	insertSweep = `
		INSERT INTO sweeps (
			run_id, started_at, finished_at, dry_run,
			scanned, scan_warnings, quarantined, ignored,
			reconciled, reaped, errors
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
)
