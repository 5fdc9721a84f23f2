package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eidolon-chat/eidolon/internal/common"
)

// classifyUpstreamError folds a raw provider error into the shared taxonomy.
// Rejections (bad request, auth, content policy) map to ErrUpstreamRejected;
// everything else (timeouts, 5xx, connection failures, rate limits) maps to
// ErrUpstreamUnavailable so callers can decide whether to retry.
func classifyUpstreamError(provider string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s request aborted: %w: %w", provider, common.ErrUpstreamUnavailable, err)
	}

	if isRejection(err) {
		return fmt.Errorf("%s rejected request: %w: %w", provider, common.ErrUpstreamRejected, err)
	}

	return fmt.Errorf("%s unavailable: %w: %w", provider, common.ErrUpstreamUnavailable, err)
}

// isRejection detects 4xx-class failures that will not succeed on retry.
// 429 is excluded; rate limits are transient and classified as unavailable.
func isRejection(err error) bool {
	errStr := err.Error()
	for _, marker := range []string{
		"400", "INVALID_ARGUMENT",
		"401", "UNAUTHENTICATED", "invalid x-api-key", "authentication_error",
		"403", "PERMISSION_DENIED",
		"404", "NOT_FOUND", "not_found_error",
		"413", "request_too_large",
		"invalid_request_error",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
