package domain

import "context"

// QuizRepository defines the interface for quiz persistence. Quizzes are
// append-only except for the single score-completion transition.
type QuizRepository interface {
	// Create persists a new quiz and fills in its ID.
	Create(ctx context.Context, quiz *Quiz) (*Quiz, error)

	// GetByID returns the quiz or a QUIZ_NOT_FOUND DomainError.
	GetByID(ctx context.Context, id int64) (*Quiz, error)

	// UpdateScore marks the quiz completed with score and optional time spent.
	UpdateScore(ctx context.Context, id int64, score int, timeSpent *int) (*Quiz, error)
}
