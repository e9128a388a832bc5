package subtitles

import (
	"strconv"
	"strings"

	"clipforge/internal/types"
)

// RenderSRT serializes cues as SRT blocks:
//
//	index
//	HH:MM:SS,mmm --> HH:MM:SS,mmm
//	wrapped text
//
// Cue indices are taken as-is; Synchronize assigns them contiguously.
func RenderSRT(cues []types.Cue) string {
	var b strings.Builder
	for _, c := range cues {
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteString("\n")
		b.WriteString(FormatCueTime(c.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatCueTime(c.End))
		b.WriteString("\n")
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
