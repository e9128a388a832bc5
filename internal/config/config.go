// Package config loads the application TOML configuration and applies
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Paths struct {
	UploadDir   string `toml:"upload_dir"`
	OutputDir   string `toml:"output_dir"`
	CounterFile string `toml:"counter_file"`
}

type Clips struct {
	// TargetLengthSec is the requested clip length. The HTTP layer accepts
	// only 15, 30 or 60.
	TargetLengthSec float64 `toml:"target_length_sec"`
	// Workers bounds how many clips are cut and transcribed at once.
	Workers int `toml:"workers"`
}

type Media struct {
	FFmpegPath   string `toml:"ffmpeg_path"`
	FFprobePath  string `toml:"ffprobe_path"`
	WhisperBin   string `toml:"whisper_bin"`
	WhisperModel string `toml:"whisper_model"`
	YtDlpPath    string `toml:"ytdlp_path"`
}

type OpenRouter struct {
	APIKey       string   `toml:"api_key"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Server struct {
	Bind string `toml:"bind"`
	// MaxUploadBytes caps multipart uploads. Default 500 MiB.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type Config struct {
	Paths      Paths      `toml:"paths"`
	Clips      Clips      `toml:"clips"`
	Media      Media      `toml:"media"`
	OpenRouter OpenRouter `toml:"openrouter"`
	Log        Log        `toml:"log"`
	Server     Server     `toml:"server"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir:   "uploads",
			OutputDir:   "output",
			CounterFile: "output/processing_counters.json",
		},
		Clips: Clips{
			TargetLengthSec: 30,
			Workers:         2,
		},
		Media: Media{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
			YtDlpPath:    "yt-dlp",
		},
		OpenRouter: OpenRouter{
			BaseURL: "https://openrouter.ai",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Server: Server{
			Bind:           "127.0.0.1:8080",
			MaxUploadBytes: 500 << 20,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error; the defaults plus environment overrides stand alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets secrets and model selection come from the environment,
// which wins over the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.OpenRouter.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		c.OpenRouter.Model = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		c.OpenRouter.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_ALLOWED_HOSTS"); v != "" {
		c.OpenRouter.AllowedHosts = strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
}

func (c Config) Validate() error {
	if c.Clips.TargetLengthSec <= 0 {
		return errors.New("clips.target_length_sec must be > 0")
	}
	if c.Clips.Workers < 1 {
		return errors.New("clips.workers must be >= 1")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir is required")
	}
	if c.Paths.CounterFile == "" {
		return errors.New("paths.counter_file is required")
	}
	if c.Media.WhisperModel == "" {
		return errors.New("media.whisper_model is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be > 0")
	}
	return nil
}
