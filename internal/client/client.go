package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyquiz/internal/domain"
	"studyquiz/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 60 * time.Second

// APIError is a non-2xx response from the quiz API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quiz api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusNotFound
}

// Client calls the quiz HTTP API.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a client for baseURL, e.g. "http://localhost:8090".
// Question generation can take most of a minute, so timeout should be generous.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// CreateQuiz submits a study form and returns the generated quiz.
func (c *Client) CreateQuiz(ctx context.Context, form domain.StudyForm) (*domain.Quiz, error) {
	req := dto.CreateQuizRequest{
		Subject:    form.Subject,
		GradeLevel: form.GradeLevel,
		Materials:  form.Materials,
		StudyMode:  string(form.StudyMode),
	}
	return c.do(ctx, fiber.MethodPost, "/api/quizzes", req)
}

// GetQuiz fetches a stored quiz.
func (c *Client) GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error) {
	return c.do(ctx, fiber.MethodGet, fmt.Sprintf("/api/quizzes/%d", id), nil)
}

// SubmitScore completes a quiz with the client-computed score.
func (c *Client) SubmitScore(ctx context.Context, id int64, score int, timeSpent *int) (*domain.Quiz, error) {
	req := dto.SubmitScoreRequest{
		Score:     dto.ScoreValue{Value: float64(score), Set: true},
		TimeSpent: timeSpent,
	}
	return c.do(ctx, fiber.MethodPost, fmt.Sprintf("/api/quizzes/%d/score", id), req)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*domain.Quiz, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	agent.Request().Header.SetMethod(method)
	agent.Request().SetRequestURI(c.baseURL + path)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(timeout)
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, fmt.Errorf("quiz api: build request: %w", err)
	}

	// Bytes releases the agent.
	status, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("quiz api: %s %s: %w", method, path, errors.Join(errs...))
	}

	if status != fiber.StatusOK {
		var errResp dto.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Message == "" {
			errResp.Message = strings.TrimSpace(string(respBody))
		}
		return nil, &APIError{Status: status, Code: errResp.Code, Message: errResp.Message}
	}

	var quiz dto.QuizResponse
	if err := json.Unmarshal(respBody, &quiz); err != nil {
		return nil, fmt.Errorf("quiz api: decode response: %w", err)
	}
	return quiz.ToDomain(), nil
}
