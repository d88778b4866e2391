package media

import (
	"math"
	"testing"
)

func TestFormatTime(t *testing.T) {
	cases := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00"},
		{59.99, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3600, "01:00:00"},
		{3725.5, "01:02:05"},
		{360000, "100:00:00"},
		{-3, "00:00:00"},
		{math.NaN(), "00:00:00"},
	}

	for _, c := range cases {
		if got := FormatTime(c.seconds); got != c.expected {
			t.Errorf("FormatTime(%v)\n\tExpected %v but got %v instead", c.seconds, c.expected, got)
		}
	}
}
