package ports

import (
	"context"

	"clipforge/internal/types"
)

// VideoTool wraps the media transcoder/prober subprocesses.
type VideoTool interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error
	// ExtractAudioSegment pulls the [start, start+duration) window of the
	// source's audio for per-clip transcription.
	ExtractAudioSegment(ctx context.Context, inPath, outWav string, start, duration float64) error
	// Cut writes a plain [start, end) cut of the source, no effects.
	Cut(ctx context.Context, inPath, outPath string, start, end float64) error
	// RenderVertical scales and pads the cut to 1080x1920 and burns the SRT
	// when srtPath is non-empty.
	RenderVertical(ctx context.Context, inPath, outPath, srtPath string) error
}

// ASR is the speech-to-text collaborator. Segment timestamps are relative
// to the audio file given to it; callers transcribing a sub-segment extract
// must shift them to absolute source time before synchronization.
type ASR interface {
	Transcribe(ctx context.Context, wavPath string) (types.Transcript, error)
}

// Analyzer is the generative content-planning collaborator. Any failure or
// unparseable response surfaces as an error; callers substitute the
// deterministic fallback analysis.
type Analyzer interface {
	Analyze(ctx context.Context, tr types.Transcript, targetLength, totalDuration float64) (types.Analysis, error)
}

// Fetcher retrieves a remote video URL into destDir and returns the local
// path.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string) (string, error)
}
