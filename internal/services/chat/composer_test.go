package chat

import (
	"strings"
	"testing"

	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

func TestComposeContext_Empty(t *testing.T) {
	composed := ComposeContext(nil, ComposerConfig{MaxUnitChars: 800, SnippetChars: 200})

	if composed.Block != "" {
		t.Errorf("expected empty block, got %q", composed.Block)
	}
	if len(composed.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(composed.Sources))
	}
}

func TestComposeContext_ContiguousLabels(t *testing.T) {
	hits := []interfaces.IndexHit{
		{ID: "fact_1", Kind: interfaces.IndexKindFact, Text: "Born in Ulm in 1879.", Score: 0.95},
		{ID: "chunk_1", Kind: interfaces.IndexKindChunk, Title: "My Life", Text: "I spent my childhood in Munich.", Score: 0.91},
		{ID: "chunk_2", Kind: interfaces.IndexKindChunk, Title: "My Life", Text: "The patent office years were quiet.", Score: 0.80},
	}

	composed := ComposeContext(hits, ComposerConfig{MaxUnitChars: 800, SnippetChars: 200})

	if len(composed.Sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(composed.Sources))
	}
	for i, src := range composed.Sources {
		if src.Index != i+1 {
			t.Errorf("source %d has index %d, want %d", i, src.Index, i+1)
		}
	}

	lines := strings.Split(composed.Block, "\n\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[1] (biography) ") {
		t.Errorf("fact line should carry the biography title: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[2] (My Life) ") {
		t.Errorf("chunk line should carry its document title: %q", lines[1])
	}
}

func TestComposeContext_DedupKeepsEarliest(t *testing.T) {
	hits := []interfaces.IndexHit{
		{ID: "a", Kind: interfaces.IndexKindFact, Text: "Born in Ulm in 1879.", Score: 0.95},
		{ID: "b", Kind: interfaces.IndexKindChunk, Title: "Bio", Text: "born   in ulm in 1879.", Score: 0.90},
		{ID: "c", Kind: interfaces.IndexKindChunk, Title: "Bio", Text: "A different passage.", Score: 0.85},
	}

	composed := ComposeContext(hits, ComposerConfig{MaxUnitChars: 800, SnippetChars: 200})

	if len(composed.Sources) != 2 {
		t.Fatalf("expected duplicate collapsed to 2 sources, got %d", len(composed.Sources))
	}
	if composed.Sources[0].Kind != string(interfaces.IndexKindFact) {
		t.Errorf("earliest occurrence should survive, got kind %q", composed.Sources[0].Kind)
	}
	if composed.Sources[1].Index != 2 {
		t.Errorf("labels should stay contiguous after dedup, got %d", composed.Sources[1].Index)
	}
}

func TestComposeContext_SkipsBlankText(t *testing.T) {
	hits := []interfaces.IndexHit{
		{ID: "a", Kind: interfaces.IndexKindChunk, Title: "Bio", Text: "   \n\t  ", Score: 0.9},
		{ID: "b", Kind: interfaces.IndexKindChunk, Title: "Bio", Text: "Real content.", Score: 0.8},
	}

	composed := ComposeContext(hits, ComposerConfig{MaxUnitChars: 800, SnippetChars: 200})

	if len(composed.Sources) != 1 {
		t.Fatalf("expected blank hit skipped, got %d sources", len(composed.Sources))
	}
	if composed.Sources[0].Index != 1 {
		t.Errorf("first rendered source should be [1], got %d", composed.Sources[0].Index)
	}
}

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short text untouched", "hello world", 50, "hello world"},
		{"cut at word boundary", "the quick brown fox jumps", 12, "the quick..."},
		{"zero disables", "anything at all", 0, "anything at all"},
		{"negative disables", "anything at all", -1, "anything at all"},
		{"exact length untouched", "hello", 5, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateAtWord(tt.text, tt.max); got != tt.want {
				t.Errorf("truncateAtWord(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateAtWord_NoBoundary(t *testing.T) {
	got := truncateAtWord("abcdefghij", 4)
	if got != "abcd..." {
		t.Errorf("single long word should hard-cut at max: got %q", got)
	}
}

func TestNormalizeText(t *testing.T) {
	a := normalizeText("  Born   IN\tUlm\n1879  ")
	b := normalizeText("born in ulm 1879")
	if a != b {
		t.Errorf("normalization mismatch: %q vs %q", a, b)
	}
}
