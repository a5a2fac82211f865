package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		token string
		want  int64
		ok    bool
	}{
		{"30m", 1_800_000, true},
		{"2h", 7_200_000, true},
		{"1d", 86_400_000, true},
		{"1w", 604_800_000, true},
		{"0m", 0, true},
		{"1h30m", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"m", 0, false},
		{"10", 0, false},
		{"10s", 0, false},
		{"-5m", 0, false},
		{" 5m", 0, false},
		{"5m ", 0, false},
		// Products that wrap int64 must be rejected, not returned
		// negative with ok=true.
		{"15250284453w", 0, false},
		{"9223372036854775807m", 0, false},
		{"99999999999999999999m", 0, false},
	}

	for _, c := range cases {
		got, ok := Parse(c.token)
		if ok != c.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", c.token, ok, c.ok)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.token, got, c.want)
		}
	}
}

func TestWithin(t *testing.T) {
	max := 28 * 24 * time.Hour

	ms, ok := Parse("28d")
	if !ok {
		t.Fatal("Parse(28d) failed")
	}
	if !Within(ms, max) {
		t.Error("28d should fit a 28-day ceiling")
	}

	ms, ok = Parse("5w")
	if !ok {
		t.Fatal("Parse(5w) failed")
	}
	if Within(ms, max) {
		t.Error("5w should not fit a 28-day ceiling")
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(1_800_000); got != 30*time.Minute {
		t.Errorf("Millis(1800000) = %v, want 30m", got)
	}
}
