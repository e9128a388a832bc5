package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"clipforge/internal/types"
)

func TestRun_ProducesClipsAndSubtitles(t *testing.T) {
	t.Parallel()

	source := writeSourceFixture(t)
	outDir := t.TempDir()
	video := &fakeVideoTool{sourceDuration: 100, cutDuration: 30}
	counters := newMemStore()

	uc := New(Deps{
		Video:    video,
		ASR:      fakeASR{tr: testTranscript()},
		Analyzer: fakeAnalyzer{analysis: testAnalysis()},
		Counters: counters,
	})

	res, err := uc.Run(context.Background(), Input{
		RunID:        "run-1",
		SourcePath:   source,
		OutDir:       outDir,
		TargetLength: 30,
		Workers:      2,
	})
	if err != nil {
		t.Fatal(err)
	}

	m := res.Manifest
	if m.RunID != "run-1" || m.SourceFile != source {
		t.Fatalf("manifest identity wrong: %+v", m)
	}
	if m.TotalClips != len(m.Clips) || m.TotalClips == 0 {
		t.Fatalf("expected clips, got TotalClips=%d len=%d", m.TotalClips, len(m.Clips))
	}
	if m.Analysis.VideoSummary != testAnalysis().VideoSummary {
		t.Fatalf("analyzer result not carried into manifest: %+v", m.Analysis)
	}

	prevID := 0
	for _, c := range m.Clips {
		if c.ID <= prevID {
			t.Fatalf("clip results not ordered by id: %+v", m.Clips)
		}
		prevID = c.ID
		if c.SubtitlePath == "" {
			t.Fatalf("clip %d has no subtitle file", c.ID)
		}
		b, err := os.ReadFile(c.SubtitlePath)
		if err != nil {
			t.Fatalf("read subtitles for clip %d: %v", c.ID, err)
		}
		if !strings.Contains(string(b), "-->") {
			t.Fatalf("clip %d subtitle file is not SRT:\n%s", c.ID, b)
		}
		if filepath.Base(c.VideoPath) != "final_cut_"+strconv.Itoa(c.ID)+".mp4" {
			t.Fatalf("clip %d video path = %q", c.ID, c.VideoPath)
		}
	}

	if n, _ := counters.Get(keyFor(t, source)); n != 1 {
		t.Fatalf("processing count after run = %d, want 1", n)
	}
}

func TestRun_ProbeFailureIsFatal(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Video:    &fakeVideoTool{probeErr: errors.New("boom")},
		ASR:      fakeASR{},
		Analyzer: fakeAnalyzer{},
		Counters: newMemStore(),
	})
	_, err := uc.Run(context.Background(), Input{
		RunID: "r", SourcePath: writeSourceFixture(t), OutDir: t.TempDir(), TargetLength: 30,
	})
	if err == nil || !strings.Contains(err.Error(), "probe source") {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestRun_AllCutsFailingFailsRunWithoutCounting(t *testing.T) {
	t.Parallel()

	source := writeSourceFixture(t)
	counters := newMemStore()
	uc := New(Deps{
		Video:    &fakeVideoTool{sourceDuration: 100, cutErr: errors.New("disk full")},
		ASR:      fakeASR{tr: testTranscript()},
		Analyzer: fakeAnalyzer{analysis: testAnalysis()},
		Counters: counters,
	})

	_, err := uc.Run(context.Background(), Input{
		RunID: "r", SourcePath: source, OutDir: t.TempDir(), TargetLength: 30,
	})
	if err == nil || !strings.Contains(err.Error(), "no clips could be produced") {
		t.Fatalf("expected run failure, got %v", err)
	}
	if n, _ := counters.Get(keyFor(t, source)); n != 0 {
		t.Fatalf("failed run must not bump the counter, got %d", n)
	}
}

func TestRun_AnalyzerFailureFallsBack(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Video:    &fakeVideoTool{sourceDuration: 100, cutDuration: 30},
		ASR:      fakeASR{tr: testTranscript()},
		Analyzer: fakeAnalyzer{err: errors.New("model offline")},
		Counters: newMemStore(),
	})

	res, err := uc.Run(context.Background(), Input{
		RunID: "r", SourcePath: writeSourceFixture(t), OutDir: t.TempDir(), TargetLength: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Manifest.Analysis.VideoSummary, "Automatic analysis") {
		t.Fatalf("expected fallback analysis, got %+v", res.Manifest.Analysis)
	}
}

func TestRun_EmptyTranscriptSkipsAnalyzer(t *testing.T) {
	t.Parallel()

	analyzer := &countingAnalyzer{}
	uc := New(Deps{
		Video:    &fakeVideoTool{sourceDuration: 100, cutDuration: 30, extractErr: errors.New("no audio")},
		ASR:      fakeASR{},
		Analyzer: analyzer,
		Counters: newMemStore(),
	})

	res, err := uc.Run(context.Background(), Input{
		RunID: "r", SourcePath: writeSourceFixture(t), OutDir: t.TempDir(), TargetLength: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer called %d times with no transcript", analyzer.calls)
	}
	if !strings.Contains(res.Manifest.Analysis.VideoSummary, "Automatic analysis") {
		t.Fatalf("expected fallback analysis, got %+v", res.Manifest.Analysis)
	}
}

func TestRun_RejectsNonPositiveTargetLength(t *testing.T) {
	t.Parallel()

	uc := New(Deps{Video: &fakeVideoTool{}, ASR: fakeASR{}, Analyzer: fakeAnalyzer{}, Counters: newMemStore()})
	if _, err := uc.Run(context.Background(), Input{SourcePath: "x", TargetLength: 0}); err == nil {
		t.Fatal("expected error for zero target length")
	}
}

func writeSourceFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func keyFor(t *testing.T, source string) string {
	t.Helper()
	st, err := os.Stat(source)
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Base(source) + "_" + strconv.FormatInt(st.Size(), 10)
}

func testTranscript() types.Transcript {
	return types.Transcript{
		Text: "Hello and welcome. Today we talk about testing.",
		Segments: []types.Segment{
			{Start: 0.5, End: 2.0, Text: "Hello and welcome."},
			{Start: 2.5, End: 5.0, Text: "Today we talk about testing."},
		},
	}
}

func testAnalysis() types.Analysis {
	return types.Analysis{
		Moments:      []types.Moment{{StartTime: 0, EndTime: 30, Summary: "intro"}},
		TotalMoments: 1,
		VideoSummary: "A talk about testing",
	}
}

type fakeVideoTool struct {
	sourceDuration float64
	cutDuration    float64

	probeErr   error
	cutErr     error
	extractErr error
	renderErr  error

	mu   sync.Mutex
	cuts int
}

func (f *fakeVideoTool) ProbeDuration(_ context.Context, path string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	if strings.HasPrefix(filepath.Base(path), "cut_") {
		return f.cutDuration, nil
	}
	return f.sourceDuration, nil
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, _, _ string) error {
	return f.extractErr
}

func (f *fakeVideoTool) ExtractAudioSegment(_ context.Context, _, _ string, _, _ float64) error {
	return f.extractErr
}

func (f *fakeVideoTool) Cut(_ context.Context, _, _ string, _, _ float64) error {
	if f.cutErr != nil {
		return f.cutErr
	}
	f.mu.Lock()
	f.cuts++
	f.mu.Unlock()
	return nil
}

func (f *fakeVideoTool) RenderVertical(_ context.Context, _, _, _ string) error {
	return f.renderErr
}

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(_ context.Context, _ string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakeAnalyzer struct {
	analysis types.Analysis
	err      error
}

func (f fakeAnalyzer) Analyze(_ context.Context, _ types.Transcript, _, _ float64) (types.Analysis, error) {
	return f.analysis, f.err
}

type countingAnalyzer struct{ calls int }

func (c *countingAnalyzer) Analyze(_ context.Context, _ types.Transcript, _, _ float64) (types.Analysis, error) {
	c.calls++
	return types.Analysis{}, nil
}

type memStore struct {
	mu sync.Mutex
	m  map[string]int
}

func newMemStore() *memStore { return &memStore{m: map[string]int{}} }

func (s *memStore) Get(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *memStore) Increment(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key]++
	return s.m[key], nil
}
