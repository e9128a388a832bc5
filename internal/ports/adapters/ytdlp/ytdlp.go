// Package ytdlp retrieves remote videos through the yt-dlp binary.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath}
}

// Fetch downloads the URL into destDir as source.mp4 and returns the local
// path. yt-dlp picks the best mp4-compatible format itself.
func (a *Adapter) Fetch(ctx context.Context, url, destDir string) (string, error) {
	outPath := filepath.Join(destDir, "source.mp4")
	cmd := exec.CommandContext(ctx, a.bin,
		"-f", "mp4/bestvideo*+bestaudio/best",
		"--no-playlist",
		"--force-overwrites",
		"-o", outPath,
		url,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp fetch: %w\n%s", err, string(b))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("yt-dlp produced no file: %w", err)
	}
	return outPath, nil
}
