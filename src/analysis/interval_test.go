package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInterval(t *testing.T) {
	cases := map[string]int64{
		"1m":    60000,
		"5m":    300000,
		"15":    900000,
		"1h":    3600000,
		"4H":    14400000,
		"1d":    86400000,
		" 30m ": 1800000,
		"0.5":   30000,
		"":      300000,
		"abc":   300000,
		"0m":    300000,
		"-5":    300000,
		"1w":    300000,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseInterval(in), "interval %q", in)
	}
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 200, ParseLimit(""))
	assert.Equal(t, 200, ParseLimit("x"))
	assert.Equal(t, 50, ParseLimit("10"))
	assert.Equal(t, 500, ParseLimit("10000"))
	assert.Equal(t, 120, ParseLimit(" 120 "))
}
