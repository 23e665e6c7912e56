package activedirectory

import (
	"testing"
	"time"

	"adjanitor/lifecycle"
)

func TestFiletimeConversion(t *testing.T) {
	type testCase struct {
		name  string
		ticks int64
		want  time.Time
	}

	tests := []testCase{
		{"unix epoch", 116444736000000000, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"never set", 0, time.Time{}},
		{"negative is never", -1, time.Time{}},
	}

	for _, test := range tests {
		got := FiletimeToTime(test.ticks)
		if !got.Equal(test.want) {
			t.Errorf("%s: FiletimeToTime(%d) = %v, want %v", test.name, test.ticks, got, test.want)
		}
	}
}

func TestFiletimeRoundTrip(t *testing.T) {
	when := time.Date(2026, 2, 14, 8, 45, 30, 0, time.UTC)
	got := FiletimeToTime(TimeToFiletime(when))
	if !got.Equal(when) {
		t.Errorf("round trip changed the time: got %v, want %v", got, when)
	}

	if TimeToFiletime(time.Time{}) != 0 {
		t.Error("zero time should map to zero ticks")
	}
}

func TestParseGeneralizedTime(t *testing.T) {
	got, err := ParseGeneralizedTime("20260830094500.0Z")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2026, 8, 30, 9, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ParseGeneralizedTime("not a timestamp"); err == nil {
		t.Error("expected error for malformed input")
	}
}

func query(enabled *bool, inactiveSince time.Time) lifecycle.Query {
	return lifecycle.Query{Enabled: enabled, InactiveSince: inactiveSince}
}

func TestMachineAccountFilter(t *testing.T) {
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		name  string
		query func() string
		want  string
	}

	enabled := true
	tests := []testCase{
		{
			"bare computer filter",
			func() string {
				return machineAccountFilter(query(nil, time.Time{})).String()
			},
			"(&(objectCategory=computer))",
		},
		{
			"enabled only",
			func() string {
				return machineAccountFilter(query(&enabled, time.Time{})).String()
			},
			"(&(objectCategory=computer)(!(userAccountControl:1.2.840.113556.1.4.803:=2)))",
		},
		{
			"inactive cutoff includes never-active",
			func() string {
				return machineAccountFilter(query(nil, cutoff)).String()
			},
			"(&(objectCategory=computer)(|(!(lastLogonTimestamp=*))(lastLogonTimestamp<=134247456000000000)))",
		},
	}

	for _, test := range tests {
		if got := test.query(); got != test.want {
			t.Errorf("%s:\n got  %s\n want %s", test.name, got, test.want)
		}
	}
}
