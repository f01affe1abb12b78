package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"studyquiz/internal/cache"
	"studyquiz/internal/domain"
	"studyquiz/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// cachedQuiz is the cache representation of a domain.Quiz.
type cachedQuiz struct {
	ID         int64             `json:"id"`
	Subject    string            `json:"subject"`
	GradeLevel string            `json:"gradeLevel"`
	Materials  string            `json:"materials"`
	Questions  []domain.Question `json:"questions"`
	Score      *int              `json:"score"`
	Completed  bool              `json:"completed"`
	TimeSpent  *int              `json:"timeSpent"`
	StudyMode  string            `json:"studyMode"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// CachedQuizRepository is a read-through, write-through cache in front of
// another QuizRepository. Cache failures are logged and never returned.
type CachedQuizRepository struct {
	next  domain.QuizRepository
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewCachedQuizRepository(next domain.QuizRepository, c domain.Cache, ttl time.Duration) *CachedQuizRepository {
	return &CachedQuizRepository{next: next, cache: c, ttl: ttl}
}

// Create implements domain.QuizRepository
func (r *CachedQuizRepository) Create(ctx context.Context, quiz *domain.Quiz) (*domain.Quiz, error) {
	created, err := r.next.Create(ctx, quiz)
	if err != nil {
		return nil, err
	}
	r.store(ctx, created)
	return created, nil
}

// GetByID implements domain.QuizRepository
func (r *CachedQuizRepository) GetByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	key := cache.QuizKey(id)

	if q, ok := r.load(ctx, key); ok {
		return q, nil
	}

	// The load is shared by every waiter, so it must outlive the caller that started it.
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		q, err := r.next.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		r.store(loadCtx, q)
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	q := v.(*domain.Quiz)
	if shared {
		cp := *q
		return &cp, nil
	}
	return q, nil
}

// UpdateScore implements domain.QuizRepository
func (r *CachedQuizRepository) UpdateScore(ctx context.Context, id int64, score int, timeSpent *int) (*domain.Quiz, error) {
	updated, err := r.next.UpdateScore(ctx, id, score, timeSpent)
	if err != nil {
		if errors.Is(err, domain.NewQuizNotFoundError(id)) {
			r.evict(ctx, id)
		}
		return nil, err
	}
	r.store(ctx, updated)
	return updated, nil
}

func (r *CachedQuizRepository) load(ctx context.Context, key string) (*domain.Quiz, bool) {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Quiz cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cq cachedQuiz
	if err := json.Unmarshal([]byte(raw), &cq); err != nil {
		logger.Get().Warn("Discarding undecodable cached quiz", zap.String("key", key), zap.Error(err))
		_ = r.cache.Delete(ctx, key)
		return nil, false
	}
	return &domain.Quiz{
		ID:         cq.ID,
		Subject:    cq.Subject,
		GradeLevel: cq.GradeLevel,
		Materials:  cq.Materials,
		Questions:  cq.Questions,
		Score:      cq.Score,
		Completed:  cq.Completed,
		TimeSpent:  cq.TimeSpent,
		StudyMode:  domain.StudyMode(cq.StudyMode),
		CreatedAt:  cq.CreatedAt,
	}, true
}

func (r *CachedQuizRepository) store(ctx context.Context, q *domain.Quiz) {
	key := cache.QuizKey(q.ID)
	data, err := json.Marshal(cachedQuiz{
		ID:         q.ID,
		Subject:    q.Subject,
		GradeLevel: q.GradeLevel,
		Materials:  q.Materials,
		Questions:  q.Questions,
		Score:      q.Score,
		Completed:  q.Completed,
		TimeSpent:  q.TimeSpent,
		StudyMode:  string(q.StudyMode),
		CreatedAt:  q.CreatedAt,
	})
	if err != nil {
		logger.Get().Warn("Failed to encode quiz for cache", zap.Int64("quiz_id", q.ID), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
		logger.Get().Warn("Quiz cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedQuizRepository) evict(ctx context.Context, id int64) {
	key := cache.QuizKey(id)
	if err := r.cache.Delete(ctx, key); err != nil {
		logger.Get().Warn("Quiz cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

var _ domain.QuizRepository = (*CachedQuizRepository)(nil)
