package media

import (
	"fmt"
	"math"
)

// FormatTime renders seconds as hh:mm:ss.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	h := math.Floor(seconds / 3600)
	m := math.Floor(math.Mod(seconds, 3600) / 60)
	s := math.Floor(math.Mod(seconds, 60))

	return fmt.Sprintf("%02d:%02d:%02d", int64(h), int64(m), int64(s))
}
