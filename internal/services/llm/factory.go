package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// the configured provider
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	retryConfig := NewRetryConfigFrom(&cfg.LLM)

	logger.Info().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing LLM service")

	switch cfg.LLM.Provider {
	case common.LLMProviderGemini:
		return NewGeminiService(&cfg.Gemini, retryConfig, logger)

	case common.LLMProviderClaude:
		return NewClaudeService(&cfg.Claude, retryConfig, logger)

	default:
		return nil, fmt.Errorf("invalid llm provider '%s': must be 'gemini' or 'claude'", cfg.LLM.Provider)
	}
}
