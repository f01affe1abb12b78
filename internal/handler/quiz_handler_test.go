package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyquiz/internal/config"
	"studyquiz/internal/domain"
	"studyquiz/internal/dto"
	"studyquiz/internal/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockQuizService struct {
	CreateQuizFunc  func(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizResponse, error)
	GetQuizFunc     func(ctx context.Context, id int64) (*dto.QuizResponse, error)
	SubmitScoreFunc func(ctx context.Context, id int64, req *dto.SubmitScoreRequest) (*dto.QuizResponse, error)
}

func (m *MockQuizService) CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
	if m.CreateQuizFunc != nil {
		return m.CreateQuizFunc(ctx, req)
	}
	panic("MockQuizService.CreateQuizFunc not implemented")
}

func (m *MockQuizService) GetQuiz(ctx context.Context, id int64) (*dto.QuizResponse, error) {
	if m.GetQuizFunc != nil {
		return m.GetQuizFunc(ctx, id)
	}
	panic("MockQuizService.GetQuizFunc not implemented")
}

func (m *MockQuizService) SubmitScore(ctx context.Context, id int64, req *dto.SubmitScoreRequest) (*dto.QuizResponse, error) {
	if m.SubmitScoreFunc != nil {
		return m.SubmitScoreFunc(ctx, id, req)
	}
	panic("MockQuizService.SubmitScoreFunc not implemented")
}

func setupApp(svc *MockQuizService, checks map[string]handler.PingFunc) *fiber.App {
	app := handler.NewApp(config.ServerConfig{})
	handler.RegisterRoutes(app, handler.NewQuizHandler(svc), handler.NewHealthHandler("deepseek", checks))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func TestCreateQuiz(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &MockQuizService{CreateQuizFunc: func(_ context.Context, req *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
			assert.Equal(t, "Math", req.Subject)
			assert.Equal(t, "flashcard", req.StudyMode)
			return &dto.QuizResponse{ID: 12, Subject: req.Subject, Questions: []domain.Question{}, StudyMode: "flashcard"}, nil
		}}
		app := setupApp(svc, nil)

		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes", dto.CreateQuizRequest{
			Subject: "Math", GradeLevel: "5", Materials: "Long division practice", StudyMode: "flashcard",
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(12), body["id"])
		assert.Equal(t, false, body["completed"])
		assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	})

	t.Run("validation error reports first field", func(t *testing.T) {
		svc := &MockQuizService{CreateQuizFunc: func(context.Context, *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
			return nil, domain.ValidationErrors{
				domain.NewFieldError("subject", "Subject is required"),
				domain.NewFieldError("materials", "Please provide more context about study materials"),
			}
		}}
		app := setupApp(svc, nil)

		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes", dto.CreateQuizRequest{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Subject is required", body["message"])
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
		assert.Len(t, body["errors"], 2)
	})

	t.Run("persistence failure", func(t *testing.T) {
		svc := &MockQuizService{CreateQuizFunc: func(context.Context, *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
			return nil, domain.NewPersistenceError("Failed to create quiz", errors.New("pq: connection refused"))
		}}
		app := setupApp(svc, nil)

		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes", dto.CreateQuizRequest{Subject: "x"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Failed to create quiz", body["message"])
		assert.NotContains(t, body["message"], "connection refused")
	})

	t.Run("malformed body", func(t *testing.T) {
		app := setupApp(&MockQuizService{}, nil)

		resp, _ := doJSON(t, app, http.MethodPost, "/api/quizzes", `{"subject": `)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetQuiz(t *testing.T) {
	svc := &MockQuizService{GetQuizFunc: func(_ context.Context, id int64) (*dto.QuizResponse, error) {
		if id == 1 {
			return &dto.QuizResponse{ID: 1, Subject: "History", Questions: []domain.Question{}}, nil
		}
		return nil, domain.NewQuizNotFoundError(id)
	}}
	app := setupApp(svc, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantMsg    string
	}{
		{name: "found", path: "/api/quizzes/1", wantStatus: http.StatusOK},
		{name: "missing", path: "/api/quizzes/2", wantStatus: http.StatusNotFound, wantMsg: "Quiz not found"},
		{name: "non numeric", path: "/api/quizzes/abc", wantStatus: http.StatusNotFound, wantMsg: "Quiz not found"},
		{name: "negative", path: "/api/quizzes/-3", wantStatus: http.StatusNotFound, wantMsg: "Quiz not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["message"])
				assert.Equal(t, float64(tt.wantStatus), body["status"])
			} else {
				assert.Equal(t, "History", body["subject"])
			}
		})
	}
}

func TestSubmitScore(t *testing.T) {
	var got *dto.SubmitScoreRequest
	svc := &MockQuizService{SubmitScoreFunc: func(_ context.Context, id int64, req *dto.SubmitScoreRequest) (*dto.QuizResponse, error) {
		got = req
		if id == 404 {
			return nil, domain.NewQuizNotFoundError(id)
		}
		if !req.Score.Set || req.Score.Value > 100 {
			return nil, domain.NewInvalidScoreError()
		}
		score := int(req.Score.Value)
		return &dto.QuizResponse{ID: id, Score: &score, Completed: true, Questions: []domain.Question{}}, nil
	}}
	app := setupApp(svc, nil)

	t.Run("numeric string", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes/3/score", `{"score": "80", "timeSpent": 42}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(80), body["score"])
		assert.Equal(t, true, body["completed"])
		require.NotNil(t, got.TimeSpent)
		assert.Equal(t, 42, *got.TimeSpent)
	})

	t.Run("out of range", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes/3/score", `{"score": 150}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid score", body["message"])
	})

	t.Run("not a number", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes/3/score", `{"score": "abc"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid score", body["message"])
	})

	t.Run("unknown quiz", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/api/quizzes/404/score", `{"score": 50}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Quiz not found", body["message"])
	})
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		app := setupApp(&MockQuizService{}, map[string]handler.PingFunc{
			"database": func(context.Context) error { return nil },
		})
		resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "deepseek", body["llmProvider"])
	})

	t.Run("degraded", func(t *testing.T) {
		app := setupApp(&MockQuizService{}, map[string]handler.PingFunc{
			"cache": func(context.Context) error { return errors.New("redis down") },
		})
		resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "degraded", body["status"])
	})
}
