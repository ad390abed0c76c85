package status

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration renders whole seconds as 1h2m3s, 2m3s or 3s.
// Short intervals never render as 0s.
func FormatDuration(seconds float64) string {
	rounded := int64(math.Round(seconds))
	if rounded < 1 {
		rounded = 1
	}
	return (time.Duration(rounded) * time.Second).String()
}

// ParseDuration reads back a duration rendered by FormatDuration as whole seconds
func ParseDuration(s string) (int64, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return int64(d / time.Second), nil
}

// Seconds is the time elapsed between two instants, clamped to zero
func Seconds(from, to time.Time) float64 {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from).Seconds()
}
