package billing

import "fmt"

// FormatClock renders seconds as <sign>HH:MM:SS. Hours are not wrapped at 24.
func FormatClock(seconds int64, sign byte) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%c%02d:%02d:%02d", sign, h, m, s)
}
