package ai

import (
	"context"
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/sashabaranov/go-openai"
)

var _ ports.Narrator = (*OpenAINarrator)(nil)

// OpenAINarrator adaptador del puerto Narrator sobre go-openai. baseURL vacío usa la API pública.
type OpenAINarrator struct {
	client *openai.Client
	model  string
	hasKey bool
}

// NewOpenAINarrator construye el adaptador. model suele ser "gpt-4o-mini".
func NewOpenAINarrator(apiKey, model, baseURL string) *OpenAINarrator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAINarrator{client: openai.NewClientWithConfig(cfg), model: model, hasKey: apiKey != ""}
}

// Narrate pide la narrativa en modo JSON.
func (o *OpenAINarrator) Narrate(ctx context.Context, a *entity.Analysis) (string, error) {
	if !o.hasKey {
		return "", fmt.Errorf("AI: OPENAI_API_KEY no configurado")
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: narrativeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildNarrativePrompt(a)},
		},
		Temperature:    0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("AI: OpenAI falló: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("AI: OpenAI no devolvió opciones")
	}
	return parseNarrative(resp.Choices[0].Message.Content)
}
