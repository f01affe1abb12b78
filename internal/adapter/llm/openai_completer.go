package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"studyquiz/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter talks to OpenAI-compatible chat completion APIs (DeepSeek by default)
// through go-openai, using the json_object response format.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAICompleter creates a completer for baseURL. An empty baseURL means api.openai.com.
func NewOpenAICompleter(apiKey, baseURL, model string, temperature float64, httpClient *http.Client) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("LLM API key cannot be empty")
	}
	if model == "" {
		return nil, errors.New("LLM model name cannot be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
	}, nil
}

// Complete implements domain.TextCompleter
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("no content in response")
	}
	return content, nil
}

var _ domain.TextCompleter = (*OpenAICompleter)(nil)
