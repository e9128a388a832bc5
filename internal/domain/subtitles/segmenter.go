package subtitles

import (
	"strings"
	"unicode/utf8"
)

// LineBreak separates display lines inside one cue. The renderer burns SRT
// through libass, which understands the ASS-style marker.
const LineBreak = `\N`

// maxLineChars bounds one display line for the 9:16 layout with a small font.
const maxLineChars = 25

// SplitIntoSentences chunks transcript text for sequential cue allocation.
// Tier 1 splits at sentence-ending punctuation (runs like "..." stay
// attached). If that yields at most one chunk, tier 2 splits on commas, and
// tier 3 groups words of long unpunctuated text. The whole text comes back
// as a single element when nothing else applies, so non-empty input always
// yields at least one non-empty chunk.
func SplitIntoSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if !isSentenceEnd(runes[i]) {
			continue
		}
		for i+1 < len(runes) && isSentenceEnd(runes[i+1]) {
			i++
			cur.WriteRune(runes[i])
		}
		if s := strings.TrimSpace(cur.String()); s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}

	if len(sentences) <= 1 {
		sentences = sentences[:0]
		for _, part := range strings.Split(text, ",") {
			if p := strings.TrimSpace(part); p != "" {
				sentences = append(sentences, p)
			}
		}
	}

	if len(sentences) <= 1 {
		words := strings.Fields(text)
		if len(words) > 10 {
			groupSize := len(words) / 3
			if groupSize < 8 {
				groupSize = 8
			}
			sentences = sentences[:0]
			for i := 0; i < len(words); i += groupSize {
				end := i + groupSize
				if end > len(words) {
					end = len(words)
				}
				sentences = append(sentences, strings.Join(words[i:end], " "))
			}
		} else {
			sentences = []string{text}
		}
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// WrapForDisplay lays the words of one cue out on up to three lines.
// Short text stays on one line, medium text splits at the midpoint word,
// long text splits at thirds. Any line over the character budget triggers a
// greedy re-flow; overflow lines beyond three merge into the last one.
func WrapForDisplay(words []string) string {
	if len(words) == 0 {
		return "Automatic" + LineBreak + "transcription"
	}
	text := strings.Join(words, " ")

	if utf8.RuneCountInString(text) <= 20 {
		return text
	}

	if utf8.RuneCountInString(text) <= 40 {
		mid := len(words) / 2
		return strings.Join(words[:mid], " ") + LineBreak + strings.Join(words[mid:], " ")
	}

	third := len(words) / 3
	twoThirds := len(words) * 2 / 3
	lines := []string{
		strings.Join(words[:third], " "),
		strings.Join(words[third:twoThirds], " "),
		strings.Join(words[twoThirds:], " "),
	}
	for _, ln := range lines {
		if utf8.RuneCountInString(ln) > maxLineChars {
			return strings.Join(reflow(words), LineBreak)
		}
	}
	return strings.Join(lines, LineBreak)
}

// reflow redistributes words greedily under the line budget and then merges
// trailing lines until at most three remain.
func reflow(words []string) []string {
	var lines []string
	var cur []string
	curLen := 0
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if curLen+wl+1 <= maxLineChars && len(lines) < 2 {
			cur = append(cur, w)
			curLen += wl + 1
		} else {
			if len(cur) > 0 {
				lines = append(lines, strings.Join(cur, " "))
			}
			cur = []string{w}
			curLen = wl
		}
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	for len(lines) > 3 {
		lines[len(lines)-2] = lines[len(lines)-2] + " " + lines[len(lines)-1]
		lines = lines[:len(lines)-1]
	}
	return lines
}
