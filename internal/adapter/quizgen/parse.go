package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"studyquiz/internal/domain"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")

	errEmptyContent  = errors.New("no content in response")
	errNoJSONObject  = errors.New("no JSON object in response")
	errNoQuestionKey = errors.New("invalid response format: questions array not found")
)

type llmResponse struct {
	Questions []json.RawMessage `json:"questions"`
}

// extractJSON strips reasoning blocks and markdown fences, then returns the
// outermost {...} span.
func extractJSON(content string) (string, error) {
	cleaned := thinkBlockRe.ReplaceAllString(content, "")
	cleaned = codeFenceRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", errEmptyContent
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", errNoJSONObject
	}
	return cleaned[start : end+1], nil
}

// parseQuestions decodes the model reply and returns every item that forms a
// valid question, along with the number of rejected items.
func parseQuestions(content string) ([]domain.Question, int, error) {
	body, err := extractJSON(content)
	if err != nil {
		return nil, 0, err
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to parse quiz questions: %w", err)
	}
	if resp.Questions == nil {
		return nil, 0, errNoQuestionKey
	}

	valid := make([]domain.Question, 0, len(resp.Questions))
	for _, item := range resp.Questions {
		var raw domain.RawQuestion
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		q, err := raw.ToQuestion()
		if err != nil {
			continue
		}
		valid = append(valid, q)
	}
	return valid, len(resp.Questions) - len(valid), nil
}
