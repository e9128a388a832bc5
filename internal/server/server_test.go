package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
	"clipforge/internal/types"
)

func newTestServer(t *testing.T, run RunFunc) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.UploadDir = t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, log, run)
}

func okRun(manifest types.Manifest) RunFunc {
	return func(_ context.Context, _ config.Config, _ pipeline.Job, _ *slog.Logger) (types.Manifest, error) {
		return manifest, nil
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, okRun(types.Manifest{}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestProcess_JSONURL(t *testing.T) {
	var gotJob pipeline.Job
	srv := newTestServer(t, func(_ context.Context, _ config.Config, job pipeline.Job, _ *slog.Logger) (types.Manifest, error) {
		gotJob = job
		return types.Manifest{RunID: "run-1", TotalClips: 2, Clips: []types.ClipResult{{ID: 1}, {ID: 2}}}, nil
	})

	body := `{"video_url": "https://example.com/v.mp4", "duration": 60}`
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	if gotJob.SourceURL != "https://example.com/v.mp4" || gotJob.TargetLength != 60 {
		t.Fatalf("job not built from request: %+v", gotJob)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["run_id"] != "run-1" || resp["success"] != true {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestProcess_MissingURL(t *testing.T) {
	srv := newTestServer(t, okRun(types.Manifest{}))
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"duration": 30}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcess_MultipartUpload(t *testing.T) {
	var gotJob pipeline.Job
	srv := newTestServer(t, func(_ context.Context, _ config.Config, job pipeline.Job, _ *slog.Logger) (types.Manifest, error) {
		gotJob = job
		return types.Manifest{RunID: "run-2", TotalClips: 1, Clips: []types.ClipResult{{ID: 1}}}, nil
	})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("video_file", "talk.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("fake video bytes")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteField("duration", "15"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body)
	}
	if gotJob.SourcePath == "" || !strings.HasSuffix(gotJob.SourcePath, "talk.mp4") {
		t.Fatalf("upload not saved into the job: %+v", gotJob)
	}
	if gotJob.TargetLength != 15 {
		t.Fatalf("duration preset not applied: %v", gotJob.TargetLength)
	}
}

func TestProcess_RejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, okRun(types.Manifest{}))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, _ := w.CreateFormFile("video_file", "notes.txt")
	fw.Write([]byte("plain text"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRunLookup(t *testing.T) {
	manifest := types.Manifest{RunID: "run-3", TotalClips: 1, Clips: []types.ClipResult{{ID: 1}}}
	srv := newTestServer(t, okRun(manifest))
	h := srv.Handler()

	// Unknown before any processing.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-3", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	// Process, then the run is queryable.
	req := httptest.NewRequest(http.MethodPost, "/api/process", strings.NewReader(`{"video_url": "https://example.com/v.mp4"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("process status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got types.Manifest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "run-3" {
		t.Fatalf("unexpected manifest: %+v", got)
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{15, 15}, {30, 30}, {60, 60},
		{0, 30}, {45, 30}, {-5, 30},
	}
	for _, tt := range tests {
		if got := normalizeDuration(tt.in); got != tt.want {
			t.Fatalf("normalizeDuration(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"talk.mp4", "talk.mp4"},
		{"../../etc/passwd", "passwd"},
		{"", "upload.mp4"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
