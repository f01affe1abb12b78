package service

import (
	"context"

	"studyquiz/internal/domain"
	"studyquiz/internal/dto"
	"studyquiz/internal/logger"
	"studyquiz/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizResponse, error)
	GetQuiz(ctx context.Context, id int64) (*dto.QuizResponse, error)
	SubmitScore(ctx context.Context, id int64, req *dto.SubmitScoreRequest) (*dto.QuizResponse, error)
}

// quizService implements QuizService
type quizService struct {
	repo      domain.QuizRepository
	generator domain.QuestionGenerator
	validator *validation.Validator
	tracer    trace.Tracer
}

// NewQuizService creates a new instance of quizService
func NewQuizService(repo domain.QuizRepository, generator domain.QuestionGenerator) QuizService {
	return &quizService{
		repo:      repo,
		generator: generator,
		validator: validation.NewValidator(),
		tracer:    otel.Tracer("studyquiz/service"),
	}
}

// CreateQuiz implements QuizService
func (s *quizService) CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizResponse, error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.CreateQuiz")
	defer span.End()

	form, errs := s.validator.ValidateStudyForm(req.Subject, req.GradeLevel, req.Materials, req.StudyMode)
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "validation failed")
		return nil, errs
	}
	span.SetAttributes(
		attribute.String("quiz.subject", form.Subject),
		attribute.String("quiz.study_mode", string(form.StudyMode)),
	)

	result := s.generator.Generate(ctx, form.Subject, form.GradeLevel, form.Materials)
	if result.IsFallback() {
		logger.Get().Warn("Serving fallback questions",
			zap.String("subject", form.Subject),
			zap.NamedError("cause", result.Cause))
	}
	span.SetAttributes(
		attribute.String("quizgen.provenance", string(result.Provenance)),
		attribute.Int("quiz.question_count", len(result.Questions)),
	)

	created, err := s.repo.Create(ctx, domain.NewQuiz(form, result.Questions))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		logger.Get().Error("Failed to persist quiz", zap.String("subject", form.Subject), zap.Error(err))
		return nil, domain.NewPersistenceError("Failed to create quiz", err)
	}

	logger.Get().Info("Created quiz",
		zap.Int64("quiz_id", created.ID),
		zap.String("provenance", string(result.Provenance)),
		zap.Int("questions", len(created.Questions)))
	resp := dto.NewQuizResponse(created)
	return &resp, nil
}

// GetQuiz implements QuizService
func (s *quizService) GetQuiz(ctx context.Context, id int64) (*dto.QuizResponse, error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.GetQuiz", trace.WithAttributes(attribute.Int64("quiz.id", id)))
	defer span.End()

	quiz, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewQuizNotFoundError(id)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, domain.NewPersistenceError("Failed to fetch quiz", err)
	}
	resp := dto.NewQuizResponse(quiz)
	return &resp, nil
}

// SubmitScore implements QuizService. The score is trusted as computed by the client
// and only range-checked here.
func (s *quizService) SubmitScore(ctx context.Context, id int64, req *dto.SubmitScoreRequest) (*dto.QuizResponse, error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.SubmitScore", trace.WithAttributes(attribute.Int64("quiz.id", id)))
	defer span.End()

	if !req.Score.Set {
		return nil, domain.NewInvalidScoreError()
	}
	score, err := s.validator.ValidateScore(req.Score.Value)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateTimeSpent(req.TimeSpent); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("quiz.score", score))

	quiz, err := s.repo.UpdateScore(ctx, id, score, req.TimeSpent)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewQuizNotFoundError(id)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, domain.NewPersistenceError("Failed to update score", err)
	}

	logger.Get().Info("Quiz completed",
		zap.Int64("quiz_id", id),
		zap.Int("score", score),
		zap.String("band", string(domain.BandFor(score))))
	resp := dto.NewQuizResponse(quiz)
	return &resp, nil
}
