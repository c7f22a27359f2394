// Package timeutil formats integer-second durations for display.
package timeutil

import "fmt"

// FormatHMS renders seconds as HH:MM:SS. Negative inputs are treated as 0.
func FormatHMS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatClock renders seconds as MM:SS below one hour and HH:MM:SS from one
// hour up, matching the runner's clock display.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 3600 {
		return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
	}
	return FormatHMS(seconds)
}
