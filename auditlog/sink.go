// Package auditlog provides the append-only audit trail the sweep writes to.
// The file-backed sink keeps the newest entry on top so operators reading the
// file see the latest sweep first.
package auditlog

import "time"

// TimestampLayout is the stamp prefixed to every entry.
const TimestampLayout = "02.01.2006 15:04:05"

// Sink is a single append target. Implementations stamp the entry themselves
// so callers pass only the event text. Append order across callers must match
// call order; that is what keeps the trail causally consistent with the
// directory mutations it describes.
type Sink interface {
	Append(entry string) error
}

// stamp formats one line: timestamp, separator, text.
func stamp(now time.Time, entry string) string {
	return now.Format(TimestampLayout) + " " + entry
}
