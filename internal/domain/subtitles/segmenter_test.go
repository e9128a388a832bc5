package subtitles

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitIntoSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentence punctuation",
			text: "Hello world. How are you? Fine!",
			want: []string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			name: "terminator runs stay attached",
			text: "Wait... really?",
			want: []string{"Wait...", "really?"},
		},
		{
			name: "comma fallback",
			text: "one, two, three",
			want: []string{"one", "two", "three"},
		},
		{
			name: "short unpunctuated text stays whole",
			text: "just a few words here",
			want: []string{"just a few words here"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitIntoSentences(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitIntoSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitIntoSentences_GroupsLongUnpunctuatedText(t *testing.T) {
	words := make([]string, 20)
	for i := range words {
		words[i] = "word"
	}
	got := SplitIntoSentences(strings.Join(words, " "))
	if len(got) < 2 {
		t.Fatalf("expected word grouping to produce multiple chunks, got %v", got)
	}
	total := 0
	for _, chunk := range got {
		total += len(strings.Fields(chunk))
	}
	if total != len(words) {
		t.Fatalf("grouping lost words: got %d, want %d", total, len(words))
	}
}

func TestWrapForDisplay(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		want  string
	}{
		{
			name:  "no words falls back to marker text",
			words: nil,
			want:  "Automatic" + LineBreak + "transcription",
		},
		{
			name:  "short text stays on one line",
			words: []string{"hello", "there"},
			want:  "hello there",
		},
		{
			name:  "medium text splits at the midpoint word",
			words: []string{"the", "quick", "brown", "fox", "jumps", "over"},
			want:  "the quick brown" + LineBreak + "fox jumps over",
		},
		{
			name:  "long text splits at thirds",
			words: []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine"},
			want:  "one two three" + LineBreak + "four five six" + LineBreak + "seven eight nine",
		},
		{
			name:  "exactly 20 chars stays on one line",
			words: []string{"aaaaaaaaaa", "bbbbbbbbb"},
			want:  "aaaaaaaaaa bbbbbbbbb",
		},
		{
			name:  "21 chars splits in two",
			words: []string{"aaaaaaaaaa", "bbbbbbbbbb"},
			want:  "aaaaaaaaaa" + LineBreak + "bbbbbbbbbb",
		},
		{
			name:  "exactly 40 chars stays on two lines",
			words: []string{"aaaaaaaaa", "bbbbbbbbb", "ccccccccc", "dddddddddd"},
			want:  "aaaaaaaaa bbbbbbbbb" + LineBreak + "ccccccccc dddddddddd",
		},
		{
			name:  "41 chars splits in three",
			words: []string{"aaaaaa", "bbbbbb", "cccccc", "dddddd", "eeeeee", "ffffff"},
			want:  "aaaaaa bbbbbb" + LineBreak + "cccccc dddddd" + LineBreak + "eeeeee ffffff",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapForDisplay(tt.words); got != tt.want {
				t.Fatalf("WrapForDisplay(%v) = %q, want %q", tt.words, got, tt.want)
			}
		})
	}
}

func TestWrapForDisplay_ReflowsUnevenThirds(t *testing.T) {
	words := strings.Fields("a b c short tail incompressiblylongcompoundword trailing words that keep going on")
	got := WrapForDisplay(words)

	lines := strings.Split(got, LineBreak)
	if len(lines) > 3 {
		t.Fatalf("expected at most 3 lines, got %d:\n%s", len(lines), got)
	}
	if utf8.RuneCountInString(lines[0]) > maxLineChars {
		t.Fatalf("first reflowed line over budget: %q", lines[0])
	}
	if strings.Join(strings.Fields(strings.ReplaceAll(got, LineBreak, " ")), " ") != strings.Join(words, " ") {
		t.Fatalf("reflow lost or reordered words:\n%s", got)
	}
}
