package subtitles

import (
	"fmt"
	"math"
)

// FormatCueTime renders an offset in seconds as an SRT timestamp
// "HH:MM:SS,mmm". Whole hours, minutes and seconds truncate; the
// millisecond part is rounded at millisecond granularity and clamped below
// the next whole second so float representation noise cannot shift the
// visible value (3661.234 must print as 01:01:01,234).
func FormatCueTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	ms := int(math.Round((seconds - float64(whole)) * 1000))
	if ms > 999 {
		ms = 999
	}
	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
