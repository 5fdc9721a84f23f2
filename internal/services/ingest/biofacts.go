package ingest

import (
	"regexp"
	"strings"
	"time"
)

// factTriggers marks sentences worth keeping as biographical facts. Broader
// than the question-time trigger list since source prose is richer than
// questions.
var factTriggers = []string{
	"born", "birth", "grew up", "upbringing", "childhood", "parents", "mother", "father",
	"family", "married", "spouse", "wife", "husband", "children", "son", "daughter",
	"school", "college", "university", "education", "degree", "phd", "doctorate",
	"career", "appointed", "professor", "tenure", "joined", "worked at",
	"prize", "award", "nobel", "fellow", "elected", "won",
	"moved to", "emigrated", "immigrated", "lived in", "resided", "died", "passed away",
}

var (
	factTriggerRe = buildTriggerRegexp()
	sentenceRe    = regexp.MustCompile(`(?:[.!?])\s+[A-Z]`)
	dateRe        = regexp.MustCompile(`\b((?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|` +
		`May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|` +
		`Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2},\s+\d{4}|\d{4})\b`)
	locationRe      = regexp.MustCompile(`\b(?:in|at|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,3})`)
	trailingParenRe = regexp.MustCompile(`\s*\([^)]{30,}\)$`)
)

func buildTriggerRegexp() *regexp.Regexp {
	escaped := make([]string, len(factTriggers))
	for i, t := range factTriggers {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(escaped, "|"))
}

// FactCandidate is one biographical sentence extracted from source text
type FactCandidate struct {
	Text      string
	DateStart *time.Time
	Location  string
	Tags      []string
}

// ExtractFactCandidates scans text for sentences that read like biographical
// facts about the named persona. Candidates are deduplicated by exact text,
// keeping first occurrence order.
func ExtractFactCandidates(text, personaName string) []FactCandidate {
	seen := make(map[string]bool)
	var out []FactCandidate

	for _, sentence := range SplitSentences(text) {
		if !looksBioSentence(sentence, personaName) {
			continue
		}
		fact := normalizeFact(sentence)
		if fact == "" || seen[fact] {
			continue
		}
		seen[fact] = true

		out = append(out, FactCandidate{
			Text:      fact,
			DateStart: parseDate(fact),
			Location:  parseLocation(fact),
			Tags:      guessTags(fact),
		})
	}

	return out
}

// SplitSentences breaks text on sentence-ending punctuation followed by a
// capital letter. Deliberately simple; abbreviations may over-split but the
// trigger and length filters discard the noise.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sentences []string
	rest := text
	for {
		loc := sentenceRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		// Split after the punctuation, keeping the capital for the next
		// sentence
		sentences = append(sentences, strings.TrimSpace(rest[:loc[0]+1]))
		rest = rest[loc[1]-1:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// looksBioSentence filters for sentences that carry a trigger keyword and
// reference the persona by full or last name. Short stubs are skipped.
func looksBioSentence(sentence, personaName string) bool {
	if len(sentence) < 30 {
		return false
	}
	if !factTriggerRe.MatchString(sentence) {
		return false
	}

	name := strings.TrimSpace(personaName)
	tokens := strings.Fields(name)
	last := name
	if len(tokens) > 0 {
		last = tokens[len(tokens)-1]
	}
	return strings.Contains(sentence, name) || strings.Contains(sentence, last)
}

func normalizeFact(sentence string) string {
	s := NormalizeWhitespace(sentence)
	return strings.TrimSpace(trailingParenRe.ReplaceAllString(s, ""))
}

func guessTags(fact string) []string {
	ss := strings.ToLower(fact)
	var tags []string

	containsAny := func(markers ...string) bool {
		for _, m := range markers {
			if strings.Contains(ss, m) {
				return true
			}
		}
		return false
	}

	if containsAny("born", "birth", "grew up", "childhood", "parents", "family") {
		tags = append(tags, "early-life")
	}
	if containsAny("school", "college", "university", "education", "degree", "phd", "doctorate") {
		tags = append(tags, "education")
	}
	if containsAny("prize", "award", "nobel", "fellow", "won") {
		tags = append(tags, "awards")
	}
	if containsAny("career", "appointed", "professor", "joined", "worked at", "tenure") {
		tags = append(tags, "career")
	}
	if containsAny("died", "passed away") {
		tags = append(tags, "death")
	}
	if len(tags) == 0 {
		tags = append(tags, "biography")
	}
	return tags
}

// parseDate extracts the first "Month Day, Year" or bare year mention.
// A bare year resolves to January 1st of that year.
func parseDate(fact string) *time.Time {
	m := dateRe.FindStringSubmatch(fact)
	if m == nil {
		return nil
	}
	txt := m[1]

	if len(txt) == 4 {
		if t, err := time.Parse("2006", txt); err == nil {
			return &t
		}
		return nil
	}
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, txt); err == nil {
			return &t
		}
	}
	return nil
}

func parseLocation(fact string) string {
	m := locationRe.FindStringSubmatch(fact)
	if m == nil {
		return ""
	}
	return m[1]
}
