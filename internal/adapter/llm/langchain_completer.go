package llm

import (
	"context"
	"errors"
	"fmt"

	"studyquiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
)

// LangchainCompleter implements domain.TextCompleter on top of any langchaingo model.
type LangchainCompleter struct {
	model       llms.Model
	temperature float64
}

// NewLangchainCompleter wraps a langchaingo model.
func NewLangchainCompleter(model llms.Model, temperature float64) (*LangchainCompleter, error) {
	if model == nil {
		return nil, errors.New("langchain model cannot be nil")
	}
	return &LangchainCompleter{model: model, temperature: temperature}, nil
}

// Complete implements domain.TextCompleter
func (c *LangchainCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("LLM returned no choices")
	}
	return resp.Choices[0].Content, nil
}

var _ domain.TextCompleter = (*LangchainCompleter)(nil)
