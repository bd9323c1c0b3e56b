package timetrack

import (
	"fmt"
	"time"
)

// Breakdown splits a duration into whole days, hours and minutes.
type Breakdown struct {
	Days    int
	Hours   int
	Minutes int
}

// Split converts d into a Breakdown. Negative durations count as zero.
func Split(d time.Duration) Breakdown {
	if d < 0 {
		d = 0
	}
	totalMinutes := int(d / time.Minute)
	totalHours := totalMinutes / 60
	return Breakdown{
		Days:    totalHours / 24,
		Hours:   totalHours % 24,
		Minutes: totalMinutes % 60,
	}
}

// FormatDuration renders d as "Nd Hh Mm" once it reaches a full day and
// as "Hh Mm" below that. Zero renders as "0h 0m".
func FormatDuration(d time.Duration) string {
	b := Split(d)
	if b.Days > 0 {
		return fmt.Sprintf("%dd %dh %dm", b.Days, b.Hours, b.Minutes)
	}
	return fmt.Sprintf("%dh %dm", b.Hours, b.Minutes)
}

// FormatClock renders d as H:MM:SS for a live running timer.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Hours returns d in fractional hours, for reports.
func Hours(d time.Duration) float64 {
	return d.Hours()
}
