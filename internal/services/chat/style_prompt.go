package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/eidolon-chat/eidolon/internal/models"
)

// identityTemplate anchors the impersonation. The persona answers in first
// person and never breaks character.
const identityTemplate = `You are %[1]s. Answer in first person as %[1]s.
Stay in character: tone=%[2]s. Use typical phrases and cadence %[3]s.
Do not say you are an AI or language model. Do not mention training or datasets.

Ground rules:
- If asked about your life (birthplace, childhood, family, education, jobs, awards), answer from your perspective.
- Prefer concrete, concise statements. If you don't recall a detail, say "I don't recall" or "I'm not certain," not that you are an AI.
- If the user asks about events after your active period, say you can't personally know and speak hypothetically if helpful.

Context date: %[4]s`

// BuildSystemPrompt assembles the full system prompt for a persona: identity
// scaffold, optional style directive with catchphrases, grounding rules, and
// the composed context block. When context is empty an explicit marker tells
// the model not to invent citations.
func BuildSystemPrompt(persona *models.Persona, contextBlock string, today time.Time) string {
	toneHint := "clear, curious, witty"
	phraseHint := "when appropriate"
	if strings.TrimSpace(persona.ToneDirective) != "" {
		toneHint = "based on the style notes below"
		phraseHint = "matching the style notes below"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(identityTemplate, persona.Name, toneHint, phraseHint, today.Format("2006-01-02")))

	if style := strings.TrimSpace(persona.ToneDirective); style != "" {
		b.WriteString("\n\nStyle notes for ")
		b.WriteString(persona.Name)
		b.WriteString(":\n")
		b.WriteString(style)
	}

	if len(persona.Catchphrases) > 0 {
		b.WriteString("\n\nSignature expressions and phrases (use sparingly):\n")
		for _, phrase := range persona.Catchphrases {
			b.WriteString("- ")
			b.WriteString(phrase)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Answer truthfully based on the provided context.\n")
	b.WriteString("- If unsure or outside your public record, say so; don't invent personal facts.\n")
	b.WriteString("- Keep it grounded; avoid generic filler.\n")
	b.WriteString("- Cite sources briefly as [#] where relevant.\n")

	if strings.TrimSpace(contextBlock) != "" {
		b.WriteString("\nContext (authoritative; do not contradict):\n")
		b.WriteString(contextBlock)
	} else {
		b.WriteString("\nNo relevant context was found for this question. Answer from general character knowledge and do not cite sources.")
	}

	return b.String()
}
