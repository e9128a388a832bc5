package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"clipforge/internal/types"
)

// Adapter asks an OpenRouter-hosted model for a content plan: noteworthy
// moments of the transcript, sized around the requested clip length. Any
// transport failure or unparseable response comes back as an error; the
// caller substitutes the deterministic fallback analysis.
type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const (
	requestTimeout = 90 * time.Second

	// promptSegmentCap bounds the prompt for very long transcripts.
	promptSegmentCap = 200
)

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "google/gemini-flash-1.5"
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (a *Adapter) Analyze(ctx context.Context, tr types.Transcript, targetLength, totalDuration float64) (types.Analysis, error) {
	if strings.TrimSpace(tr.Text) == "" {
		return types.Analysis{}, errors.New("openrouter: no transcript text to analyze")
	}

	type promptSegment struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}
	segs := tr.Segments
	if len(segs) > promptSegmentCap {
		segs = segs[:promptSegmentCap]
	}
	arr := make([]promptSegment, 0, len(segs))
	for _, s := range segs {
		arr = append(arr, promptSegment{Start: s.Start, End: s.End, Text: s.Text})
	}

	promptData := map[string]any{
		"clip_length_sec":    targetLength,
		"total_duration_sec": totalDuration,
		"transcript":         tr.Text,
		"segments":           arr,
	}
	pb, err := json.Marshal(promptData)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("marshal prompt: %w", err)
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": string(buildPrompt(pb))},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "clipforge_analysis",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"moments": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"start_time":    map[string]any{"type": "number"},
									"end_time":      map[string]any{"type": "number"},
									"summary":       map[string]any{"type": "string"},
									"transcription": map[string]any{"type": "string"},
									"justification": map[string]any{"type": "string"},
									"emotion":       map[string]any{"type": "string"},
									"keywords":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
								},
								"required": []string{"start_time", "end_time", "summary", "transcription", "justification", "emotion", "keywords"},
							},
						},
						"total_moments": map[string]any{"type": "integer"},
						"video_summary": map[string]any{"type": "string"},
					},
					"required": []string{"moments", "total_moments", "video_summary"},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return types.Analysis{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return types.Analysis{}, fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return types.Analysis{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return types.Analysis{}, fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return types.Analysis{}, fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Analysis{}, err
	}
	if len(raw.Choices) == 0 {
		return types.Analysis{}, errors.New("openrouter: response has no choices")
	}

	content, err := messageContentToString(raw.Choices[0].Message.Content)
	if err != nil {
		return types.Analysis{}, err
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return types.Analysis{}, err
	}

	var analysis types.Analysis
	if err := json.Unmarshal([]byte(clean), &analysis); err != nil {
		return types.Analysis{}, fmt.Errorf("openrouter: decode analysis: %w", err)
	}
	if len(analysis.Moments) == 0 {
		return types.Analysis{}, errors.New("openrouter: analysis has no moments")
	}
	if analysis.TotalMoments == 0 {
		analysis.TotalMoments = len(analysis.Moments)
	}
	return analysis, nil
}

func buildPrompt(dataJSON []byte) []byte {
	return []byte(
		"Identify the most noteworthy moments of this video transcript for short vertical clips. " +
			"Return strictly valid JSON (no markdown, no code fences) matching the provided schema. " +
			"Each moment should run close to clip_length_sec seconds, start cleanly, and end on a complete thought. " +
			"Moments must not overlap and must stay within total_duration_sec. " +
			"Summaries and justifications are short single sentences." +
			"\n\nTranscript JSON:\n" + string(dataJSON),
	)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
