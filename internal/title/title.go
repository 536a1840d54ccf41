// Package title generates short human-readable labels for threads.
package title

import (
	"context"
	"errors"
	"strings"

	"github.com/hexchat/chat-sync/internal/llm"
	"github.com/hexchat/chat-sync/internal/model"
	"github.com/hexchat/chat-sync/pkg/metrics"
)

// Generator produces a label from a sample of a thread's early messages.
// Best-effort: callers fall back to model.DefaultTitle on error.
type Generator interface {
	Generate(ctx context.Context, messages []model.Message) (string, error)
}

// sampleSize caps how many early messages are sent to the model.
const sampleSize = 4

// maxTitleRunes caps the returned label length.
const maxTitleRunes = 80

// LLMGenerator generates titles through an LLM client. The message sample
// is passed explicitly per call; the generator holds no conversation state.
type LLMGenerator struct {
	client llm.Client
}

// NewLLMGenerator creates a generator over the given client.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Generate asks the model for a short title over the first few messages.
func (g *LLMGenerator) Generate(ctx context.Context, messages []model.Message) (string, error) {
	if g.client == nil {
		return "", errors.New("no LLM client configured")
	}
	if len(messages) == 0 {
		return "", errors.New("no messages to title")
	}

	sample := messages
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	var b strings.Builder
	b.WriteString("Write a short title (at most 8 words) for this conversation. Reply with the title only.\n\n")
	for _, m := range sample {
		switch m.Role {
		case model.RoleBot:
			b.WriteString("Bot: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Text)
		b.WriteString("\n")
	}

	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Messages:  []llm.ChatMessage{{Role: "user", Content: b.String()}},
		MaxTokens: 32,
	})
	if err != nil {
		metrics.RecordTitleGeneration("error")
		return "", err
	}

	title := clean(resp.Content)
	if title == "" {
		metrics.RecordTitleGeneration("empty")
		return "", errors.New("model returned an empty title")
	}
	metrics.RecordTitleGeneration("ok")
	return title, nil
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxTitleRunes {
		s = string(r[:maxTitleRunes])
	}
	return s
}
