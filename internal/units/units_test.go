package units

import (
	"math"
	"testing"
)

func TestIsValidFrame(t *testing.T) {
	for _, frame := range ValidFrames {
		if !IsValidFrame(frame) {
			t.Errorf("IsValidFrame(%q) = false, want true", frame)
		}
	}
	for _, frame := range []string{"", "WATERLINE", "keel", "tx"} {
		if IsValidFrame(frame) {
			t.Errorf("IsValidFrame(%q) = true, want false", frame)
		}
	}
}

func TestBytesToMBPerHour(t *testing.T) {
	// 1 MB over 1 hour is 1 MB/hr.
	if got := BytesToMBPerHour(1e6, 3600); got != 1.0 {
		t.Errorf("BytesToMBPerHour(1e6, 3600) = %v, want 1.0", got)
	}
	// 2 MB over 10 seconds is 720 MB/hr.
	if got := BytesToMBPerHour(2e6, 10); math.Abs(got-720) > 1e-9 {
		t.Errorf("BytesToMBPerHour(2e6, 10) = %v, want 720", got)
	}
}

func TestBytesToMBPerHourDegenerate(t *testing.T) {
	cases := []struct {
		name           string
		bytes, seconds float64
	}{
		{"zero time", 1e6, 0},
		{"negative time", 1e6, -5},
		{"nan time", 1e6, math.NaN()},
		{"nan bytes", math.NaN(), 10},
	}
	for _, tc := range cases {
		if got := BytesToMBPerHour(tc.bytes, tc.seconds); !math.IsNaN(got) {
			t.Errorf("%s: got %v, want NaN", tc.name, got)
		}
	}
}
