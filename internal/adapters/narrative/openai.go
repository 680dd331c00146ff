// Package narrative genera el texto explicativo de un ticket con un LLM.
// Es enriquecimiento puro: un solo intento con timeout corto, y cualquier
// falla devuelve narrativa vacía aguas arriba sin invalidar el ticket.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alejandrodnm/propbot/internal/domain"
)

const (
	defaultModel   = openai.GPT4oMini
	requestTimeout = 15 * time.Second
	maxTokens      = 200
)

// OpenAINarrator implementa ports.Narrator contra un endpoint compatible
// con chat-completions.
type OpenAINarrator struct {
	client *openai.Client
	model  string
}

// NewOpenAINarrator crea el narrator. baseURL vacío usa api.openai.com;
// model vacío usa el default.
func NewOpenAINarrator(apiKey, baseURL, model string) *OpenAINarrator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAINarrator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Narrate genera 2-3 oraciones sobre el ticket. Un solo intento.
func (n *OpenAINarrator) Narrate(ctx context.Context, ticket domain.Ticket) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     n.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You write short, confident blurbs for sports betting tickets. " +
					"2-3 sentences, no hedging, no emojis, never mention odds math.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(ticket),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative.Narrate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(t domain.Ticket) string {
	var sb strings.Builder
	if t.Kind == domain.KindSingle {
		sb.WriteString("Write a blurb for this single pick:\n")
	} else {
		fmt.Fprintf(&sb, "Write a blurb for this %d-leg parlay:\n", t.Legs())
	}
	for _, s := range t.Selections {
		fmt.Fprintf(&sb, "- %s %s %.1f %s (%s, confidence %.2f)\n",
			s.Player, s.Side, s.Line, s.PropType, s.Sport, s.Confidence)
	}
	return sb.String()
}
