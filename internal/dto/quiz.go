package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"studyquiz/internal/domain"
)

// CreateQuizRequest is the study form submitted to create a quiz
// @Description Study form used to generate a quiz
type CreateQuizRequest struct {
	Subject    string `json:"subject" example:"Biology"`
	GradeLevel string `json:"gradeLevel" example:"9th grade"`
	Materials  string `json:"materials" example:"Photosynthesis converts light energy into chemical energy"`
	StudyMode  string `json:"studyMode,omitempty" example:"standard" enums:"standard,flashcard"`
}

// ScoreValue accepts a JSON number or a numeric string.
type ScoreValue struct {
	Value float64
	Set   bool
}

var errInvalidScoreValue = errors.New("score must be a number")

func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ScoreValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return errInvalidScoreValue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return errInvalidScoreValue
		}
		*s = ScoreValue{Value: f, Set: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return errInvalidScoreValue
	}
	*s = ScoreValue{Value: f, Set: true}
	return nil
}

func (s ScoreValue) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// SubmitScoreRequest completes a quiz
// @Description Final score (0-100) and optional seconds spent
type SubmitScoreRequest struct {
	Score     ScoreValue `json:"score" swaggertype:"number" example:"80"`
	TimeSpent *int       `json:"timeSpent,omitempty" example:"240"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz information
type QuizResponse struct {
	ID         int64             `json:"id" example:"1"`
	Subject    string            `json:"subject"`
	GradeLevel string            `json:"gradeLevel"`
	Materials  string            `json:"materials"`
	Questions  []domain.Question `json:"questions" swaggertype:"array,object"`
	Score      *int              `json:"score"`
	Completed  bool              `json:"completed"`
	TimeSpent  *int              `json:"timeSpent"`
	StudyMode  string            `json:"studyMode"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func NewQuizResponse(q *domain.Quiz) QuizResponse {
	questions := q.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return QuizResponse{
		ID:         q.ID,
		Subject:    q.Subject,
		GradeLevel: q.GradeLevel,
		Materials:  q.Materials,
		Questions:  questions,
		Score:      q.Score,
		Completed:  q.Completed,
		TimeSpent:  q.TimeSpent,
		StudyMode:  string(q.StudyMode),
		CreatedAt:  q.CreatedAt,
	}
}

// ToDomain converts a response back into a domain quiz, for API clients.
func (r QuizResponse) ToDomain() *domain.Quiz {
	mode := domain.StudyMode(r.StudyMode)
	if mode == "" {
		mode = domain.StudyModeStandard
	}
	return &domain.Quiz{
		ID:         r.ID,
		Subject:    r.Subject,
		GradeLevel: r.GradeLevel,
		Materials:  r.Materials,
		Questions:  r.Questions,
		Score:      r.Score,
		Completed:  r.Completed,
		TimeSpent:  r.TimeSpent,
		StudyMode:  mode,
		CreatedAt:  r.CreatedAt,
	}
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse is returned by the liveness endpoint
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Provider string            `json:"llmProvider,omitempty"`
}
