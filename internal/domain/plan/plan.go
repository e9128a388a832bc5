package plan

import (
	"math"

	"clipforge/internal/types"
)

// ClipCount decides how many cuts a source of the given length yields.
func ClipCount(totalDuration, targetLength float64) int {
	switch {
	case totalDuration <= 5:
		return 1
	case totalDuration <= targetLength:
		return 1
	case totalDuration <= targetLength*3:
		return 3
	case totalDuration <= targetLength*5:
		return 5
	case totalDuration <= targetLength*10:
		return 10
	default:
		n := int(totalDuration / targetLength)
		if n > 20 {
			n = 20
		}
		return n
	}
}

// PlanClips derives the clip windows for one run. Each generated start
// point becomes a [start, min(start+targetLength, totalDuration)) window;
// windows shorter than one second are dropped while their 1-indexed
// position is kept, so emitted IDs may be non-contiguous.
func PlanClips(totalDuration, targetLength float64, processingCount int) []types.ClipSpec {
	numCuts := ClipCount(totalDuration, targetLength)
	starts := GenerateStartPoints(totalDuration, targetLength, numCuts, processingCount)

	clips := make([]types.ClipSpec, 0, len(starts))
	for i, start := range starts {
		end := clipEnd(start, targetLength, totalDuration)
		if end-start < 1 {
			continue
		}
		clips = append(clips, types.ClipSpec{ID: i + 1, Start: start, End: end})
	}
	return clips
}

// clipEnd clamps the window end to the source and nudges it down so the
// effective length never exceeds targetLength when start+targetLength
// rounds up.
func clipEnd(start, targetLength, totalDuration float64) float64 {
	end := math.Min(start+targetLength, totalDuration)
	for end-start > targetLength {
		end = math.Nextafter(end, math.Inf(-1))
	}
	return end
}
