// Package assistant generates the natural-language answer (and optional
// raw chart payload) for a conversation turn. Two providers ship: a
// rule-based one that needs no credentials, and an OpenAI-compatible
// one selected with ASSISTANT_PROVIDER=openai.
package assistant

import (
	"context"

	"github.com/circlegod/circlegod/pkg/models"
)

// Assistant produces an answer for the conversation so far, optionally
// informed by retrieved dataset rows. The returned ChartData is raw and
// untrusted; callers must normalize it before rendering.
type Assistant interface {
	Answer(ctx context.Context, history []models.ChatMessage, dataCtx *models.DataContext) (*models.AssistantResult, error)
}

// lastUserMessage returns the content of the most recent user turn, or
// the last message when no user turn exists.
func lastUserMessage(history []models.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser {
			return history[i].Content
		}
	}
	if len(history) > 0 {
		return history[len(history)-1].Content
	}
	return ""
}
