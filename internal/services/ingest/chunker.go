package ingest

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends. Chunking and content hashing both run on normalized text,
// so formatting-only changes to a source file do not defeat idempotence.
func NormalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// SimpleChunk splits text into overlapping word windows, preferring to end
// each chunk on a sentence boundary. chunkSize and overlap are in words.
// Empty input yields no chunks.
func SimpleChunk(text string, chunkSize, overlap int) []string {
	text = NormalizeWhitespace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	words := strings.Split(text, " ")
	var chunks []string

	start := 0
	for start < len(words) {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunkText := strings.Join(words[start:end], " ")

		// Cut at the last sentence end when the chunk is not final and the
		// boundary leaves enough text behind
		if end < len(words) {
			if lastPeriod := strings.LastIndex(chunkText, "."); lastPeriod > 200 {
				chunkText = chunkText[:lastPeriod+1]
				end = start + len(strings.Split(chunkText, " "))
			}
		}

		chunks = append(chunks, strings.TrimSpace(chunkText))
		if end == len(words) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}

	return chunks
}
