package monitor

import (
	"fmt"
	"time"
)

// etaThreshold is the progress fraction below which no estimate is made.
const etaThreshold = 0.05

// Progress is a point-in-time view of chapter progress within a pass.
type Progress struct {
	Reached   int
	Total     int
	Fraction  float64
	Elapsed   time.Duration
	Remaining time.Duration
	HasETA    bool
}

// NewProgress computes the fraction and remaining-time estimate.
func NewProgress(reached, total int, elapsed time.Duration) Progress {
	p := Progress{Reached: reached, Total: total, Elapsed: elapsed}
	if total > 0 {
		p.Fraction = min(float64(reached)/float64(total), 1)
	}
	p.Remaining, p.HasETA = EstimateRemaining(elapsed, p.Fraction)
	return p
}

// EstimateRemaining extrapolates elapsed/fraction - elapsed. It is only valid
// once more than 5% of the work is done.
func EstimateRemaining(elapsed time.Duration, fraction float64) (time.Duration, bool) {
	if fraction <= etaThreshold {
		return 0, false
	}
	total := time.Duration(float64(elapsed) / fraction)
	return max(total-elapsed, 0), true
}

// FormatDuration renders "12.3s", "4m 5s" or "1h 2m".
func FormatDuration(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("%.1fs", s)
	case s < 3600:
		total := int(s)
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	default:
		total := int(s)
		return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
	}
}
