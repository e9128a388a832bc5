package types

// Transcript is the speech-to-text collaborator output: full text plus
// time-stamped segments. Segment offsets are in seconds relative to the
// audio handed to the collaborator.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription is what reaches the subtitle synchronizer: either a
// structured transcript (text + segments) or plain text recovered from a
// degraded collaborator response. Use the constructors so the origin stays
// explicit at the boundary.
type Transcription struct {
	Text       string
	Segments   []Segment
	Structured bool
}

func StructuredTranscription(text string, segments []Segment) Transcription {
	return Transcription{Text: text, Segments: segments, Structured: true}
}

func PlainTranscription(text string) Transcription {
	return Transcription{Text: text}
}

// ClipSpec is one planned cut window. IDs are 1-indexed positions in the
// plan and survive drops, so they may be non-contiguous in the output.
type ClipSpec struct {
	ID    int
	Start float64
	End   float64
}

func (c ClipSpec) Length() float64 { return c.End - c.Start }

// Cue is a single subtitle entry with clip-relative timings and text that
// has already been wrapped into display lines.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Moment is one noteworthy window proposed by the content-planning model,
// or synthesized by the fallback analysis.
type Moment struct {
	StartTime     float64  `json:"start_time"`
	EndTime       float64  `json:"end_time"`
	Summary       string   `json:"summary"`
	Transcription string   `json:"transcription"`
	Justification string   `json:"justification"`
	Emotion       string   `json:"emotion"`
	Keywords      []string `json:"keywords"`
}

// Analysis is the content plan returned by the generative collaborator.
type Analysis struct {
	Moments      []Moment `json:"moments"`
	TotalMoments int      `json:"total_moments"`
	VideoSummary string   `json:"video_summary"`
}

// ClipResult records one finished clip. Immutable after creation.
type ClipResult struct {
	ID            int     `json:"id"`
	StartSec      float64 `json:"start_sec"`
	EndSec        float64 `json:"end_sec"`
	DurationSec   float64 `json:"duration_sec"`
	Summary       string  `json:"summary"`
	Transcription string  `json:"transcription"`
	VideoPath     string  `json:"video_path"`
	SubtitlePath  string  `json:"subtitle_path"`
}

// Manifest is the serialized run metadata owned by the surrounding
// application.
type Manifest struct {
	RunID      string       `json:"run_id"`
	Timestamp  string       `json:"timestamp"`
	SourceFile string       `json:"source_file"`
	Analysis   Analysis     `json:"analysis"`
	Clips      []ClipResult `json:"clips"`
	TotalClips int          `json:"total_clips"`
}
