package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"studyquiz/internal/domain"
)

// QuestionList stores questions as a JSON array (jsonb on PostgreSQL, TEXT on sqlite).
type QuestionList []domain.Question

// Value implements the driver.Valuer interface
func (l QuestionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]domain.Question(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (l *QuestionList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = QuestionList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("QuestionList Scan: unsupported type %T", value)
	}
	if len(data) == 0 || string(data) == "null" {
		*l = QuestionList{}
		return nil
	}

	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("QuestionList Scan: %w", err)
	}
	*l = questions
	return nil
}

// Quiz is the row shape of the quizzes table.
type Quiz struct {
	ID         int64         `db:"id"`
	Subject    string        `db:"subject"`
	GradeLevel string        `db:"grade_level"`
	Materials  string        `db:"materials"`
	Questions  QuestionList  `db:"questions"`
	Score      sql.NullInt64 `db:"score"`
	Completed  bool          `db:"completed"`
	TimeSpent  sql.NullInt64 `db:"time_spent"`
	StudyMode  string        `db:"study_mode"`
	CreatedAt  time.Time     `db:"created_at"`
}

func FromDomain(q *domain.Quiz) *Quiz {
	m := &Quiz{
		ID:         q.ID,
		Subject:    q.Subject,
		GradeLevel: q.GradeLevel,
		Materials:  q.Materials,
		Questions:  QuestionList(q.Questions),
		Completed:  q.Completed,
		StudyMode:  string(q.StudyMode),
		CreatedAt:  q.CreatedAt,
	}
	if q.Score != nil {
		m.Score = sql.NullInt64{Int64: int64(*q.Score), Valid: true}
	}
	if q.TimeSpent != nil {
		m.TimeSpent = sql.NullInt64{Int64: int64(*q.TimeSpent), Valid: true}
	}
	return m
}

func (m *Quiz) ToDomain() *domain.Quiz {
	q := &domain.Quiz{
		ID:         m.ID,
		Subject:    m.Subject,
		GradeLevel: m.GradeLevel,
		Materials:  m.Materials,
		Questions:  []domain.Question(m.Questions),
		Completed:  m.Completed,
		StudyMode:  domain.StudyMode(m.StudyMode),
		CreatedAt:  m.CreatedAt,
	}
	if q.StudyMode == "" {
		q.StudyMode = domain.StudyModeStandard
	}
	if m.Score.Valid {
		score := int(m.Score.Int64)
		q.Score = &score
	}
	if m.TimeSpent.Valid {
		spent := int(m.TimeSpent.Int64)
		q.TimeSpent = &spent
	}
	return q
}
