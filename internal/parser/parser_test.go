package parser

import (
	"testing"
	"time"
)

func TestNormalizeMONumber(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"MO-1042", "MO-1042", false},
		{"mo-1042", "MO-1042", false},
		{"  1042 ", "MO-1042", false},
		{"MO-12", "", true},
		{"", "", true},
		{"MO-abc", "", true},
	}
	for _, c := range cases {
		got, err := NormalizeMONumber(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeMONumber(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeMONumber(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeMONumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseTimeEntry(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"90", 90, false},
		{"0", 0, false},
		{"4:30", 270, false},
		{"1:02:05", 3725, false},
		{"1h30m", 5400, false},
		{"5m", 300, false},
		{"90s", 90, false},
		{"1h2m3s", 3723, false},
		{"-5", 0, true},
		{"4:75", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseTimeEntry(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimeEntry(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeEntry(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimeEntry(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestDurationFromRangeClampsNegative(t *testing.T) {
	start := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(-30 * time.Second)
	if got := DurationFromRange(start, end); got != 0 {
		t.Errorf("reversed range should clamp to 0, got %d", got)
	}
	if got := DurationFromRange(start, start.Add(95*time.Second)); got != 95 {
		t.Errorf("DurationFromRange = %d, want 95", got)
	}
	// Sub-second remainders floor, never round up.
	if got := DurationFromRange(start, start.Add(95*time.Second+900*time.Millisecond)); got != 95 {
		t.Errorf("DurationFromRange with millis = %d, want 95", got)
	}
}

func TestParseTimestampTimeOnly(t *testing.T) {
	ref := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	got, err := ParseTimestamp("14:05", ref)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2025, 3, 10, 14, 5, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseTimestamp = %v, want %v", got, want)
	}
	if _, err := ParseTimestamp("not a time", ref); err == nil {
		t.Error("expected error for garbage input")
	}
}
