package plan

import (
	"fmt"
	"math"

	"clipforge/internal/types"
)

// FallbackAnalysis synthesizes a deterministic content plan of uniform
// moments when the generative collaborator fails, returns non-JSON, or has
// no transcript to work with.
func FallbackAnalysis(totalDuration, targetLength float64) types.Analysis {
	numCuts := int(totalDuration / targetLength)
	if numCuts == 0 {
		numCuts = 1
	}

	moments := make([]types.Moment, 0, numCuts)
	for i := 0; i < numCuts; i++ {
		start := float64(i) * targetLength
		end := math.Min(float64(i+1)*targetLength, totalDuration)
		moments = append(moments, types.Moment{
			StartTime:     start,
			EndTime:       end,
			Summary:       fmt.Sprintf("Clip %d - automatic segment", i+1),
			Transcription: fmt.Sprintf("Automatic transcript for segment %d", i+1),
			Justification: "Segment derived from the requested clip length",
			Emotion:       "neutral",
			Keywords:      []string{"automatic", "segment", "clip"},
		})
	}

	return types.Analysis{
		Moments:      moments,
		TotalMoments: len(moments),
		VideoSummary: fmt.Sprintf("Automatic analysis: %d clips of %.0fs", numCuts, targetLength),
	}
}
