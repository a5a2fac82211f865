// Package duration parses short human-authored duration tokens like "30m",
// "2h", "1d", "1w" into millisecond counts. Compound tokens ("1h30m") are
// deliberately not supported; moderation commands want one magnitude and one
// unit, nothing clever.
package duration

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var tokenRe = regexp.MustCompile(`^(\d+)([mhdw])$`)

var unitMillis = map[string]int64{
	"m": 60_000,
	"h": 3_600_000,
	"d": 86_400_000,
	"w": 604_800_000,
}

// Parse converts a token into milliseconds. The second return value is false
// when the token does not match the grammar; callers must treat that as
// invalid input, not as a zero duration. "0m" is syntactically valid and
// returns (0, true); rejecting a zero duration is the caller's call.
func Parse(token string) (int64, bool) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Magnitude overflows int64; treat like any other non-parse.
		return 0, false
	}
	unit := unitMillis[m[2]]
	if n > math.MaxInt64/unit {
		// The product would wrap and a wrapped-negative value slips
		// under any ceiling check.
		return 0, false
	}
	return n * unit, true
}

// Within reports whether ms fits under the given ceiling. The ceiling is a
// caller-level policy (Discord timeouts cap at 28 days, slowmode at 6 hours),
// so it is a parameter here rather than a constant.
func Within(ms int64, max time.Duration) bool {
	return ms <= max.Milliseconds()
}

// Millis returns ms as a time.Duration.
func Millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
