package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// subtitleStyle tunes burned-in SRT rendering for the 1080x1920 layout:
// small white text near the bottom with a translucent backdrop.
const subtitleStyle = "FontSize=11," +
	"PrimaryColour=&Hffffff," +
	"OutlineColour=&H000000," +
	"BackColour=&H60000000," +
	"Bold=0," +
	"Outline=1," +
	"Shadow=1," +
	"MarginV=80," +
	"MarginL=50," +
	"MarginR=50," +
	"Alignment=2," +
	"Spacing=0.7"

const verticalScale = "scale=1080:1920:force_original_aspect_ratio=decrease," +
	"pad=1080:1920:(ow-iw)/2:(oh-ih)/2:black"

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractAudioSegment(ctx context.Context, inPath, outWav string, start, duration float64) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(duration),
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract segment audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Cut(ctx context.Context, inPath, outPath string, start, end float64) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(end-start),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		"-avoid_negative_ts", "make_zero",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg cut: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) RenderVertical(ctx context.Context, inPath, outPath, srtPath string) error {
	vf := verticalScale
	if srtPath != "" {
		vf += ",subtitles=" + escapeFilterPath(srtPath) + ":force_style='" + subtitleStyle + "'"
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		"-crf", "23",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render vertical: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
