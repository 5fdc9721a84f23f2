package chat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// factSourceTitle labels fact citations, which have no parent document
const factSourceTitle = "biography"

// ComposerConfig bounds the rendered context block
type ComposerConfig struct {
	// MaxUnitChars caps each rendered unit; longer texts are cut at a word
	// boundary with an ellipsis
	MaxUnitChars int

	// SnippetChars caps the snippet echoed back in each Source
	SnippetChars int
}

// ComposedContext is the rendered context block plus its citation metadata.
// Source order matches the [n] labels in Block, 1-based and contiguous.
type ComposedContext struct {
	Block   string
	Sources []models.Source
}

// ComposeContext renders retrieval hits into a citation-labeled context
// block. Duplicate texts (compared after whitespace and case normalization)
// are dropped, keeping the earliest occurrence so citation indexes stay
// contiguous. An empty hit list yields an empty block.
func ComposeContext(hits []interfaces.IndexHit, cfg ComposerConfig) *ComposedContext {
	var (
		lines   []string
		sources []models.Source
		seen    = make(map[string]bool)
	)

	for _, hit := range hits {
		key := normalizeText(hit.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		index := len(sources) + 1
		rendered := truncateAtWord(strings.TrimSpace(hit.Text), cfg.MaxUnitChars)

		title := hit.Title
		if hit.Kind == interfaces.IndexKindFact {
			title = factSourceTitle
		}

		lines = append(lines, fmt.Sprintf("[%d] (%s) %s", index, title, rendered))
		sources = append(sources, models.Source{
			Index:   index,
			Kind:    string(hit.Kind),
			Title:   title,
			Snippet: truncateAtWord(strings.TrimSpace(hit.Text), cfg.SnippetChars),
			Score:   hit.Score,
		})
	}

	return &ComposedContext{
		Block:   strings.Join(lines, "\n\n"),
		Sources: sources,
	}
}

// normalizeText collapses runs of whitespace and lowercases, so dedup is
// insensitive to formatting differences between sources
func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// truncateAtWord cuts text to at most max runes, backing up to the previous
// word boundary and appending an ellipsis. Zero or negative max disables
// truncation.
func truncateAtWord(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimRight(string(runes[:cut]), " \t\n") + "..."
}
