package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/counter"
	"clipforge/internal/ports"
	"clipforge/internal/ports/adapters/ffmpeg"
	"clipforge/internal/ports/adapters/openrouter"
	"clipforge/internal/ports/adapters/whispercpp"
	"clipforge/internal/ports/adapters/ytdlp"
	"clipforge/internal/types"
	"clipforge/internal/usecase"
)

// Job is one processing request: either a local source file or a remote
// URL to fetch first.
type Job struct {
	SourcePath string
	SourceURL  string
	// TargetLength overrides the configured clip length when > 0.
	TargetLength float64
}

func (j Job) Validate() error {
	if j.SourcePath == "" && j.SourceURL == "" {
		return errors.New("either a source path or a source URL is required")
	}
	if j.SourcePath != "" && j.SourceURL != "" {
		return errors.New("source path and source URL are mutually exclusive")
	}
	if j.SourcePath != "" {
		if _, err := os.Stat(j.SourcePath); err != nil {
			return fmt.Errorf("stat source: %w", err)
		}
	}
	return nil
}

// Run wires adapters from the configuration, prepares the per-run project
// folder, executes the processor and persists the run metadata. The
// returned manifest is what the CLI and HTTP layers present.
func Run(ctx context.Context, cfg config.Config, job Job, log *slog.Logger) (types.Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return types.Manifest{}, fmt.Errorf("config: %w", err)
	}
	if err := job.Validate(); err != nil {
		return types.Manifest{}, err
	}
	if err := openrouter.ValidateBaseURL(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AllowedHosts); err != nil {
		return types.Manifest{}, fmt.Errorf("config: %w", err)
	}

	runID := uuid.NewString()
	outDir := buildRunOutDir(cfg.Paths.OutputDir, job.sourceName(), runID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.Manifest{}, err
	}
	log.Info("run folder prepared", "run_id", runID, "dir", outDir)

	video := ffmpeg.New(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	asr := whispercpp.New(cfg.Media.WhisperBin, cfg.Media.WhisperModel)
	analyzer := openrouter.New(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model, cfg.OpenRouter.BaseURL)
	counters := counter.NewFileStore(cfg.Paths.CounterFile)

	sourcePath := job.SourcePath
	if job.SourceURL != "" {
		fetcher := ytdlp.New(cfg.Media.YtDlpPath)
		log.Info("fetching remote source", "url", job.SourceURL)
		p, err := fetcher.Fetch(ctx, job.SourceURL, outDir)
		if err != nil {
			return types.Manifest{}, fmt.Errorf("fetch source: %w", err)
		}
		sourcePath = p
	}

	targetLength := cfg.Clips.TargetLengthSec
	if job.TargetLength > 0 {
		targetLength = job.TargetLength
	}

	proc := usecase.New(usecase.Deps{
		Video:    video,
		ASR:      asr,
		Analyzer: analyzer,
		Counters: counters,
		Log:      log,
	})
	res, err := proc.Run(ctx, usecase.Input{
		RunID:        runID,
		SourcePath:   sourcePath,
		OutDir:       outDir,
		TargetLength: targetLength,
		Workers:      cfg.Clips.Workers,
	})
	if err != nil {
		return types.Manifest{}, err
	}

	if err := writeManifest(outDir, res.Manifest); err != nil {
		return types.Manifest{}, err
	}
	log.Info("run complete", "run_id", runID, "clips", res.Manifest.TotalClips)
	return res.Manifest, nil
}

func (j Job) sourceName() string {
	if j.SourcePath != "" {
		return filepath.Base(j.SourcePath)
	}
	return "remote"
}

func writeManifest(outDir string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(outDir, "metadata.json"), b, 0o644)
}

// buildRunOutDir names the project folder after the source plus a short
// run id prefix, so repeated runs on the same source stay side by side.
func buildRunOutDir(outRoot, sourceName, runID string) string {
	name := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	name = normalizePathSegment(name)
	if name == "" {
		name = "source"
	}
	suffix := strings.ReplaceAll(runID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return filepath.Join(outRoot, name+"-"+suffix)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Analyzer = (*openrouter.Adapter)(nil)
var _ ports.Fetcher = (*ytdlp.Adapter)(nil)
