package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizePathSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Talk", "my-talk"},
		{"  Weird__name!!  ", "weird-name"},
		{"already-clean", "already-clean"},
		{"===", ""},
		{"Ünïcode Lettérs", "ünïcode-lettérs"},
	}
	for _, tt := range tests {
		if got := normalizePathSegment(tt.in); got != tt.want {
			t.Fatalf("normalizePathSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildRunOutDir(t *testing.T) {
	got := buildRunOutDir("output", "My Talk.mp4", "123e4567-e89b-12d3-a456-426614174000")
	want := filepath.Join("output", "my-talk-123e4567")
	if got != want {
		t.Fatalf("buildRunOutDir = %q, want %q", got, want)
	}

	// Names that normalize away still get a usable folder.
	got = buildRunOutDir("output", "###.mp4", "123e4567-e89b-12d3-a456-426614174000")
	if !strings.HasPrefix(filepath.Base(got), "source-") {
		t.Fatalf("empty normalized name should fall back to source-, got %q", got)
	}
}

func TestJobValidate(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "in.mp4")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"local file", Job{SourcePath: existing}, false},
		{"remote url", Job{SourceURL: "https://example.com/v.mp4"}, false},
		{"neither", Job{}, true},
		{"both", Job{SourcePath: existing, SourceURL: "https://example.com/v.mp4"}, true},
		{"missing file", Job{SourcePath: filepath.Join(t.TempDir(), "absent.mp4")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
