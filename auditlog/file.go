package auditlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// staleAfter is how long the file may sit untouched before the next append
// clears it instead of growing it. A crude guard against unbounded growth,
// not a rotation policy.
const staleAfter = 12 * 30 * 24 * time.Hour

// FileSink writes entries to a reverse-chronological text file: every append
// rewrites the file with the new line above all previous content.
type FileSink struct {
	path string

	// Now is the clock used for entry stamps and the staleness check.
	// Defaults to time.Now.
	Now func() time.Time
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, Now: time.Now}
}

// Append prepends one stamped line to the file, creating it if needed. If the
// existing file has not been written to for twelve months its old content is
// dropped; the new entry is never lost.
func (s *FileSink) Append(entry string) error {
	now := s.Now()

	previous, err := s.readPrevious(now)
	if err != nil {
		return err
	}

	line := stamp(now, entry) + "\n"
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append([]byte(line), previous...), 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing audit log: %w", err)
	}
	return nil
}

func (s *FileSink) readPrevious(now time.Time) ([]byte, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	if now.Sub(info.ModTime()) >= staleAfter {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return data, nil
}
