package activedirectory

import "time"

// Active Directory stores lastLogonTimestamp (and friends) as a FILETIME:
// 100-nanosecond ticks since 1601-01-01 UTC.
const (
	ticksPerSecond  = 10_000_000
	secondsTo1970   = 11_644_473_600
	generalizedTime = "20060102150405.0Z"
)

// FiletimeToTime converts a FILETIME tick count to a UTC time. Zero ticks
// mean the attribute was never set and map to the zero time.
func FiletimeToTime(ticks int64) time.Time {
	if ticks <= 0 {
		return time.Time{}
	}
	secs := ticks/ticksPerSecond - secondsTo1970
	nanos := (ticks % ticksPerSecond) * 100
	return time.Unix(secs, nanos).UTC()
}

// TimeToFiletime converts a time to FILETIME ticks. The zero time maps to
// zero ticks.
func TimeToFiletime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return (t.Unix()+secondsTo1970)*ticksPerSecond + int64(t.Nanosecond())/100
}

// ParseGeneralizedTime parses attributes like whenChanged, which AD returns
// in ASN.1 generalized time form ("20240131094500.0Z").
func ParseGeneralizedTime(value string) (time.Time, error) {
	return time.Parse(generalizedTime, value)
}
