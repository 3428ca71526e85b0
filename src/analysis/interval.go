package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultInterval = "5m"
	DefaultLimit    = 200
	MinLimit        = 50
	MaxLimit        = 500
)

var intervalPattern = regexp.MustCompile(`^(\d+)([mhd]?)$`)

// -----------------------------------------------------------------------------

// ParseInterval converts "<n><m|h|d>" into milliseconds. A bare number is
// minutes. Anything else is tried as a plain (possibly fractional) minute count
// and otherwise falls back to five minutes.
func ParseInterval(raw string) int64 {
	s := strings.ToLower(strings.TrimSpace(raw))

	if m := intervalPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil && n > 0 {
			unit := time.Minute
			switch m[2] {
			case "h":
				unit = time.Hour
			case "d":
				unit = 24 * time.Hour
			}
			if n <= math.MaxInt64/unit.Milliseconds() {
				return n * unit.Milliseconds()
			}
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
		ms := f * float64(time.Minute.Milliseconds())
		if ms >= 1 && ms < math.MaxInt64 {
			return int64(ms)
		}
	}

	return 5 * time.Minute.Milliseconds()
}

// -----------------------------------------------------------------------------

// ParseLimit reads a candle count, defaulting to 200 and clamping to [50, 500].
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = DefaultLimit
	}
	return ClampLimit(n)
}

// ClampLimit bounds n to [MinLimit, MaxLimit].
func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
