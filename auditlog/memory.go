package auditlog

import "time"

// MemorySink collects stamped entries in memory, newest first. It backs tests
// and the dry-run report; it never fails.
type MemorySink struct {
	entries []string

	Now func() time.Time
}

func NewMemorySink() *MemorySink {
	return &MemorySink{Now: time.Now}
}

func (s *MemorySink) Append(entry string) error {
	s.entries = append([]string{stamp(s.Now(), entry)}, s.entries...)
	return nil
}

// Entries returns the collected lines, newest first.
func (s *MemorySink) Entries() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}
