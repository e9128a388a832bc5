package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"clipforge/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// Transcribe runs whisper.cpp over the wav file and reads back its JSON
// output, written next to the input. Segment timestamps come back relative
// to the given audio; callers feeding a sub-segment extract shift them to
// absolute source time themselves.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) (types.Transcript, error) {
	outPrefix := strings.TrimSuffix(wavPath, ".wav")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}

	var tr types.Transcript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return types.Transcript{}, err
	}

	var parts []string
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		if tr.Segments[i].Text != "" {
			parts = append(parts, tr.Segments[i].Text)
		}
	}
	if strings.TrimSpace(tr.Text) == "" {
		tr.Text = strings.Join(parts, " ")
	}
	tr.Text = strings.TrimSpace(strings.ReplaceAll(tr.Text, "\n", " "))
	return tr, nil
}
