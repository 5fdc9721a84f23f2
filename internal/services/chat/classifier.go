package chat

import (
	"strings"
)

// QuestionKind is the coarse routing decision for a question
type QuestionKind string

const (
	// KindBiographical routes through the fact tier before chunks
	KindBiographical QuestionKind = "biographical"
	// KindGeneral retrieves from document chunks only
	KindGeneral QuestionKind = "general"
)

// bioTriggers are the keyword markers of a biographical question. Matching
// is substring-based over the lowercased question, so "Where did you grow up?"
// trips both "grew up" variants and "where did".
var bioTriggers = []string{
	"born", "birth", "upbringing", "grew up", "family", "parents", "married", "children",
	"where from", "education", "school", "university", "college", "early life",
	"when did", "where did", "timeline", "award", "prize", "nobel",
}

// ClassifyQuestion decides whether a question is biographical. Empty or
// whitespace-only questions are general.
func ClassifyQuestion(question string) QuestionKind {
	ql := strings.ToLower(question)
	for _, trigger := range bioTriggers {
		if strings.Contains(ql, trigger) {
			return KindBiographical
		}
	}
	return KindGeneral
}
