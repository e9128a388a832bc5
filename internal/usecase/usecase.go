package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"clipforge/internal/counter"
	"clipforge/internal/domain/plan"
	"clipforge/internal/domain/subtitles"
	"clipforge/internal/ports"
	"clipforge/internal/types"
)

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Analyzer ports.Analyzer
	Counters counter.Store
	Log      *slog.Logger
}

type Processor struct{ d Deps }

func New(d Deps) Processor {
	if d.Log == nil {
		d.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Processor{d: d}
}

type Input struct {
	RunID      string
	SourcePath string
	// OutDir is the per-run project folder; cuts, subtitles and audio
	// extracts all land here.
	OutDir string
	// TargetLength is the requested clip length in seconds.
	TargetLength float64
	// Workers bounds concurrent per-clip processing. Zero means 2.
	Workers int
}

type Result struct {
	Manifest types.Manifest
}

// Run executes one full processing run: probe, transcribe, analyze, plan,
// then cut/caption every planned clip. Individual clip failures are logged
// and skipped; the run fails only when the source cannot be probed or no
// clip at all could be produced.
func (p Processor) Run(ctx context.Context, in Input) (Result, error) {
	if in.TargetLength <= 0 {
		return Result{}, errors.New("target length must be > 0")
	}
	st, err := os.Stat(in.SourcePath)
	if err != nil {
		return Result{}, fmt.Errorf("stat source: %w", err)
	}

	total, err := p.d.Video.ProbeDuration(ctx, in.SourcePath)
	if err != nil {
		return Result{}, fmt.Errorf("probe source: %w", err)
	}

	key := counter.Key(in.SourcePath, st.Size())
	processingCount, err := p.d.Counters.Get(key)
	if err != nil {
		p.d.Log.Warn("counter read failed, assuming first run", "error", err)
		processingCount = 0
	}
	p.d.Log.Info("processing source",
		"source", filepath.Base(in.SourcePath),
		"duration_sec", total,
		"processing_count", processingCount)

	tr := p.transcribeSource(ctx, in)
	analysis := p.analyze(ctx, tr, in.TargetLength, total)

	clips := plan.PlanClips(total, in.TargetLength, processingCount)
	if len(clips) == 0 {
		return Result{}, errors.New("no clips could be planned for this source")
	}

	results := p.processClips(ctx, in, clips, total)
	if len(results) == 0 {
		return Result{}, errors.New("no clips could be produced")
	}

	if _, err := p.d.Counters.Increment(key); err != nil {
		p.d.Log.Warn("counter increment failed", "error", err)
	}

	return Result{Manifest: types.Manifest{
		RunID:      in.RunID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		SourceFile: in.SourcePath,
		Analysis:   analysis,
		Clips:      results,
		TotalClips: len(results),
	}}, nil
}

// processClips runs each clip's external-call sequence on a bounded worker
// pool. Emission order is restored by id afterwards; only id stability
// matters to callers.
func (p Processor) processClips(ctx context.Context, in Input, clips []types.ClipSpec, total float64) []types.ClipResult {
	workers := in.Workers
	if workers < 1 {
		workers = 2
	}
	sem := make(chan struct{}, workers)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []types.ClipResult
	)
	for _, clip := range clips {
		clip := clip
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := p.processClip(ctx, in, clip, total)
			if err != nil {
				p.d.Log.Error("clip failed", "clip", clip.ID, "error", err)
				return
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func (p Processor) processClip(ctx context.Context, in Input, clip types.ClipSpec, total float64) (types.ClipResult, error) {
	p.d.Log.Info("processing clip", "clip", clip.ID, "start", clip.Start, "end", clip.End)

	cutPath := filepath.Join(in.OutDir, fmt.Sprintf("cut_%d.mp4", clip.ID))
	if err := p.d.Video.Cut(ctx, in.SourcePath, cutPath, clip.Start, clip.End); err != nil {
		return types.ClipResult{}, fmt.Errorf("cut: %w", err)
	}

	// Prefer the real duration of the cut file for cue clamping; the
	// planned window is close enough when probing fails.
	clipLength := clip.Length()
	if d, err := p.d.Video.ProbeDuration(ctx, cutPath); err == nil && d > 0 {
		clipLength = d
	}

	tr := p.transcribeClip(ctx, in, clip)
	cues := subtitles.Synchronize(clip, tr, clipLength)

	srtPath := filepath.Join(in.OutDir, fmt.Sprintf("cut_%d.srt", clip.ID))
	if err := os.WriteFile(srtPath, []byte(subtitles.RenderSRT(cues)), 0o644); err != nil {
		p.d.Log.Warn("subtitle write failed, rendering without subtitles", "clip", clip.ID, "error", err)
		srtPath = ""
	}

	// Very short sources render without burned subtitles; the overlay
	// dominates the frame at that length.
	burnPath := srtPath
	if total <= 10 {
		burnPath = ""
	}

	finalPath := filepath.Join(in.OutDir, fmt.Sprintf("final_cut_%d.mp4", clip.ID))
	if err := p.d.Video.RenderVertical(ctx, cutPath, finalPath, burnPath); err != nil {
		p.d.Log.Warn("render with subtitles failed, retrying plain", "clip", clip.ID, "error", err)
		if err := p.d.Video.RenderVertical(ctx, cutPath, finalPath, ""); err != nil {
			p.d.Log.Warn("plain render failed, keeping raw cut", "clip", clip.ID, "error", err)
			finalPath = cutPath
		}
	}

	return types.ClipResult{
		ID:            clip.ID,
		StartSec:      clip.Start,
		EndSec:        clip.End,
		DurationSec:   clip.Length(),
		Summary:       fmt.Sprintf("Clip %d - %.0fs to %.0fs", clip.ID, clip.Start, clip.End),
		Transcription: tr.Text,
		VideoPath:     finalPath,
		SubtitlePath:  srtPath,
	}, nil
}

// transcribeSource transcribes the whole source for content analysis.
// Failures degrade to an empty transcript; analysis then falls back to the
// duration-only plan.
func (p Processor) transcribeSource(ctx context.Context, in Input) types.Transcript {
	wav := filepath.Join(in.OutDir, "audio.wav")
	if err := p.d.Video.ExtractAudioMono16k(ctx, in.SourcePath, wav); err != nil {
		p.d.Log.Warn("audio extraction failed", "error", err)
		return types.Transcript{}
	}
	tr, err := p.d.ASR.Transcribe(ctx, wav)
	if err != nil {
		p.d.Log.Warn("transcription failed", "error", err)
		return types.Transcript{}
	}
	return tr
}

func (p Processor) analyze(ctx context.Context, tr types.Transcript, targetLength, total float64) types.Analysis {
	if strings.TrimSpace(tr.Text) == "" {
		p.d.Log.Info("no transcript available, using automatic analysis")
		return plan.FallbackAnalysis(total, targetLength)
	}
	analysis, err := p.d.Analyzer.Analyze(ctx, tr, targetLength, total)
	if err != nil {
		p.d.Log.Warn("content analysis failed, using automatic analysis", "error", err)
		return plan.FallbackAnalysis(total, targetLength)
	}
	return analysis
}

// transcribeClip re-transcribes one clip window and shifts segment
// timestamps to absolute source time, per the synchronizer's contract.
// Every failure path yields a usable plain transcription instead of an
// error.
func (p Processor) transcribeClip(ctx context.Context, in Input, clip types.ClipSpec) types.Transcription {
	fallback := types.PlainTranscription(fmt.Sprintf("Automatic transcript for clip %d", clip.ID))

	wav := filepath.Join(in.OutDir, fmt.Sprintf("segment_%d.wav", clip.ID))
	if err := p.d.Video.ExtractAudioSegment(ctx, in.SourcePath, wav, clip.Start, clip.Length()); err != nil {
		p.d.Log.Warn("segment audio extraction failed", "clip", clip.ID, "error", err)
		return fallback
	}
	defer os.Remove(wav)

	tr, err := p.d.ASR.Transcribe(ctx, wav)
	if err != nil {
		p.d.Log.Warn("segment transcription failed", "clip", clip.ID, "error", err)
		return fallback
	}
	if strings.TrimSpace(tr.Text) == "" {
		return fallback
	}

	segments := make([]types.Segment, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		segments = append(segments, types.Segment{
			Start: s.Start + clip.Start,
			End:   s.End + clip.Start,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return types.StructuredTranscription(tr.Text, segments)
}
