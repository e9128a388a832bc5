package subtitles

import (
	"strings"

	"clipforge/internal/types"
)

// placeholderText fills cues when no usable transcription survives.
var placeholderText = "Automatic transcription" + LineBreak + "for this clip"

// Synchronize maps a transcription onto clip-relative subtitle cues.
// Segment timestamps must already be absolute source-video offsets; the
// speech-to-text adapter owns that shift when it transcribes a sub-segment
// extract, and this function subtracts the clip start exactly once.
//
// Producers are tried in order and the first non-empty cue list wins;
// a final plausibility gate replaces anything empty or malformed with a
// single full-clip placeholder, so the result is never empty.
func Synchronize(clip types.ClipSpec, tr types.Transcription, clipLength float64) []types.Cue {
	if clipLength <= 0 {
		clipLength = clip.Length()
	}

	producers := []func() []types.Cue{
		func() []types.Cue { return cuesFromSegments(clip, tr, clipLength) },
		func() []types.Cue { return cuesFromText(tr.Text, clipLength) },
	}

	var cues []types.Cue
	for _, produce := range producers {
		if cues = produce(); len(cues) > 0 {
			break
		}
	}
	if !plausible(cues) {
		cues = []types.Cue{{Start: 0, End: clipLength, Text: placeholderText}}
	}
	for i := range cues {
		cues[i].Index = i + 1
	}
	return cues
}

func cuesFromSegments(clip types.ClipSpec, tr types.Transcription, clipLength float64) []types.Cue {
	if !tr.Structured || len(tr.Segments) == 0 {
		return nil
	}
	var cues []types.Cue
	for _, seg := range tr.Segments {
		relStart := seg.Start - clip.Start
		if relStart < 0 {
			relStart = 0
		}
		relEnd := seg.End - clip.Start
		if relEnd < 0 {
			relEnd = 0
		}
		if relEnd > clipLength {
			relEnd = clipLength
		}
		text := sanitizeCueText(seg.Text)
		if text == "" || relEnd <= relStart {
			continue
		}
		cues = append(cues, types.Cue{
			Start: relStart,
			End:   relEnd,
			Text:  WrapForDisplay(strings.Fields(text)),
		})
	}
	return cues
}

func cuesFromText(text string, clipLength float64) []types.Cue {
	text = sanitizeCueText(text)
	if text == "" {
		return nil
	}
	sentences := SplitIntoSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	perSentence := clipLength / float64(len(sentences))
	if perSentence < 1.0 {
		perSentence = 1.0
	}
	var cues []types.Cue
	for i, sentence := range sentences {
		start := float64(i) * perSentence
		if start >= clipLength {
			break
		}
		end := float64(i+1) * perSentence
		if end > clipLength {
			end = clipLength
		}
		cues = append(cues, types.Cue{
			Start: start,
			End:   end,
			Text:  WrapForDisplay(strings.Fields(sentence)),
		})
	}
	return cues
}

// plausible applies three escalating checks on the serialized form so a
// degenerate cue list never reaches the renderer.
func plausible(cues []types.Cue) bool {
	if len(cues) == 0 {
		return false
	}
	rendered := RenderSRT(cues)
	if len(strings.TrimSpace(rendered)) < 20 {
		return false
	}
	return strings.Contains(rendered, "-->")
}

func sanitizeCueText(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, `\`, "")
	return strings.TrimSpace(s)
}
