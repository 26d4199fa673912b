package ass

import "fmt"

// FormatTime renders milliseconds as H:MM:SS.CC. Hours are not padded and
// centiseconds are truncated.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms % 3_600_000 / 60_000
	s := ms % 60_000 / 1000
	cs := ms % 1000 / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
