// Package server exposes the processing pipeline over HTTP: multipart
// uploads or remote URLs in, run metadata and finished clips out.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
	"clipforge/internal/types"
)

var allowedExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".avi":  {},
	".mkv":  {},
	".webm": {},
}

// RunFunc executes one processing job. Injected so tests can fake the
// whole pipeline.
type RunFunc func(ctx context.Context, cfg config.Config, job pipeline.Job, log *slog.Logger) (types.Manifest, error)

type Server struct {
	cfg config.Config
	log *slog.Logger
	run RunFunc

	mu   sync.Mutex
	runs map[string]types.Manifest
}

func New(cfg config.Config, log *slog.Logger, run RunFunc) *Server {
	if run == nil {
		run = pipeline.Run
	}
	return &Server{cfg: cfg, log: log, run: run, runs: map[string]types.Manifest{}}
}

func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: fmt.Sprintf("%dM", s.cfg.Server.MaxUploadBytes>>20),
	}))

	e.GET("/healthz", s.handleHealth)
	e.POST("/api/process", s.handleProcess)
	e.GET("/api/runs/:id", s.handleRun)
	e.GET("/api/runs/:id/clips/:clip", s.handleClipDownload)
	return e
}

func (s *Server) Start() error {
	e := s.Handler()
	s.log.Info("http server listening", "bind", s.cfg.Server.Bind)
	return e.Start(s.cfg.Server.Bind)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type urlRequest struct {
	VideoURL string  `json:"video_url"`
	Duration float64 `json:"duration"`
}

// handleProcess accepts either a multipart upload (field "video_file",
// optional form field "duration") or a JSON body with a remote URL, and
// processes the source synchronously.
func (s *Server) handleProcess(c echo.Context) error {
	var job pipeline.Job

	if file, err := c.FormFile("video_file"); err == nil {
		path, err := s.saveUpload(file)
		if err != nil {
			s.log.Warn("upload rejected", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		job.SourcePath = path
		job.TargetLength = normalizeDuration(parseFloat(c.FormValue("duration")))
	} else {
		var req urlRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "expected a video_file upload or a JSON body")
		}
		if strings.TrimSpace(req.VideoURL) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "video_url is required")
		}
		job.SourceURL = strings.TrimSpace(req.VideoURL)
		job.TargetLength = normalizeDuration(req.Duration)
	}

	manifest, err := s.run(c.Request().Context(), s.cfg, job, s.log)
	if err != nil {
		s.log.Error("processing failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.mu.Lock()
	s.runs[manifest.RunID] = manifest
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"run_id":  manifest.RunID,
		"clips":   manifest.Clips,
		"message": fmt.Sprintf("produced %d clips", manifest.TotalClips),
	})
}

func (s *Server) handleRun(c echo.Context) error {
	s.mu.Lock()
	manifest, ok := s.runs[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown run")
	}
	return c.JSON(http.StatusOK, manifest)
}

func (s *Server) handleClipDownload(c echo.Context) error {
	s.mu.Lock()
	manifest, ok := s.runs[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown run")
	}
	for _, clip := range manifest.Clips {
		if fmt.Sprintf("%d", clip.ID) == c.Param("clip") {
			return c.Attachment(clip.VideoPath, filepath.Base(clip.VideoPath))
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "unknown clip")
}

func (s *Server) saveUpload(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file format %q; use mp4, mov, avi, mkv or webm", ext)
	}

	dir := filepath.Join(s.cfg.Paths.UploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(dir, sanitizeFilename(file.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}

// normalizeDuration restricts the requested clip length to the supported
// presets; anything else falls back to 30s.
func normalizeDuration(d float64) float64 {
	switch d {
	case 15, 30, 60:
		return d
	default:
		return 30
	}
}

func parseFloat(s string) float64 {
	var f float64
	fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." {
		name = "upload.mp4"
	}
	return name
}
