package scoring

import (
	"fmt"
	"time"
)

// Band is a coarse rating of a percentage.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandFor rates percent: high from 80, medium from 50.
func BandFor(percent float64) Band {
	switch {
	case percent >= 80:
		return BandHigh
	case percent >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// FormatDuration renders elapsed quiz time as "42s", "3m 05s" or "1h 02m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
