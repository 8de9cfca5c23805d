package geo

import (
	"fmt"
	"math"
)

// FormatDistance renders meters as "850 m" below a kilometre and "2.3 km"
// from there on.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FormatDuration rounds to whole minutes, then renders "12 min" or "1h 5min".
func FormatDuration(seconds float64) string {
	minutes := int64(math.Round(seconds / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh %dmin", minutes/60, minutes%60)
}
