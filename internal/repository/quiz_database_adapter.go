package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studyquiz/internal/domain"
	"studyquiz/internal/repository/models"
)

const selectQuizColumns = `SELECT id, subject, grade_level, materials, questions,
	score, completed, time_spent, study_mode, created_at
	FROM quizzes`

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.
type QuizDatabaseAdapter struct {
	db DBTX
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db DBTX) *QuizDatabaseAdapter {
	return &QuizDatabaseAdapter{db: db}
}

// Create implements domain.QuizRepository
func (a *QuizDatabaseAdapter) Create(ctx context.Context, quiz *domain.Quiz) (*domain.Quiz, error) {
	if quiz == nil {
		return nil, domain.NewInternalError("cannot save nil quiz", nil)
	}

	created := *quiz
	created.Score = nil
	created.Completed = false
	created.TimeSpent = nil
	if created.StudyMode == "" {
		created.StudyMode = domain.StudyModeStandard
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	// Both drivers store microsecond precision.
	created.CreatedAt = created.CreatedAt.Truncate(time.Microsecond)

	m := models.FromDomain(&created)
	query := a.db.Rebind(`INSERT INTO quizzes (
		subject, grade_level, materials, questions, completed, study_mode, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	if err := a.db.QueryRowContext(ctx, query,
		m.Subject, m.GradeLevel, m.Materials, m.Questions, m.Completed, m.StudyMode, m.CreatedAt,
	).Scan(&created.ID); err != nil {
		return nil, domain.NewPersistenceError("Failed to create quiz", err)
	}
	return &created, nil
}

// GetByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	var m models.Quiz
	err := a.db.GetContext(ctx, &m, a.db.Rebind(selectQuizColumns+` WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewQuizNotFoundError(id)
		}
		return nil, domain.NewPersistenceError("Failed to fetch quiz", err)
	}
	return m.ToDomain(), nil
}

// UpdateScore implements domain.QuizRepository
func (a *QuizDatabaseAdapter) UpdateScore(ctx context.Context, id int64, score int, timeSpent *int) (*domain.Quiz, error) {
	var spent sql.NullInt64
	if timeSpent != nil {
		spent = sql.NullInt64{Int64: int64(*timeSpent), Valid: true}
	}

	res, err := a.db.ExecContext(ctx,
		a.db.Rebind(`UPDATE quizzes SET score = ?, completed = ?, time_spent = ? WHERE id = ?`),
		score, true, spent, id)
	if err != nil {
		return nil, domain.NewPersistenceError("Failed to update score", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, domain.NewPersistenceError("Failed to update score", err)
	}
	if rows == 0 {
		return nil, domain.NewQuizNotFoundError(id)
	}

	updated, err := a.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		return nil, domain.NewPersistenceError("Failed to update score", err)
	}
	return updated, nil
}

var _ domain.QuizRepository = (*QuizDatabaseAdapter)(nil)
