package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studyquiz/internal/adapter"
	"studyquiz/internal/cache"
	"studyquiz/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQuizRepository struct {
	mock.Mock
}

func (m *mockQuizRepository) Create(ctx context.Context, quiz *domain.Quiz) (*domain.Quiz, error) {
	args := m.Called(ctx, quiz)
	q, _ := args.Get(0).(*domain.Quiz)
	return q, args.Error(1)
}

func (m *mockQuizRepository) GetByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*domain.Quiz)
	return q, args.Error(1)
}

func (m *mockQuizRepository) UpdateScore(ctx context.Context, id int64, score int, timeSpent *int) (*domain.Quiz, error) {
	args := m.Called(ctx, id, score, timeSpent)
	q, _ := args.Get(0).(*domain.Quiz)
	return q, args.Error(1)
}

const cacheTTL = time.Hour

func storedQuiz(t *testing.T, id int64) *domain.Quiz {
	t.Helper()
	q := testQuiz(t)
	q.ID = id
	q.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return q
}

func encodedQuiz(t *testing.T, q *domain.Quiz) string {
	t.Helper()
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
	require.NoError(t, err)
	return string(data)
}

func TestCachedQuizRepository_GetByID_Hit(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)
	quiz := storedQuiz(t, 5)

	redisMock.ExpectGet(cache.QuizKey(5)).SetVal(encodedQuiz(t, quiz))

	got, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, quiz, got)
	inner.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedQuizRepository_GetByID_MissPopulates(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)
	quiz := storedQuiz(t, 5)

	redisMock.ExpectGet(cache.QuizKey(5)).SetErr(redis.Nil)
	inner.On("GetByID", mock.Anything, int64(5)).Return(quiz, nil).Once()
	redisMock.ExpectSet(cache.QuizKey(5), encodedQuiz(t, quiz), cacheTTL).SetVal("OK")

	got, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, quiz, got)
	inner.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedQuizRepository_GetByID_CacheDownFallsThrough(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)
	quiz := storedQuiz(t, 5)

	redisMock.ExpectGet(cache.QuizKey(5)).SetErr(errors.New("connection refused"))
	inner.On("GetByID", mock.Anything, int64(5)).Return(quiz, nil).Once()
	redisMock.ExpectSet(cache.QuizKey(5), encodedQuiz(t, quiz), cacheTTL).SetErr(errors.New("connection refused"))

	got, err := repo.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, quiz, got)
	inner.AssertExpectations(t)
}

func TestCachedQuizRepository_GetByID_NotFoundNotCached(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)

	redisMock.ExpectGet(cache.QuizKey(9)).SetErr(redis.Nil)
	inner.On("GetByID", mock.Anything, int64(9)).Return(nil, domain.NewQuizNotFoundError(9)).Once()

	_, err := repo.GetByID(context.Background(), 9)

	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedQuizRepository_CreateAndUpdateWriteThrough(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)
	ctx := context.Background()

	input := testQuiz(t)
	created := storedQuiz(t, 11)
	inner.On("Create", mock.Anything, input).Return(created, nil).Once()
	redisMock.ExpectSet(cache.QuizKey(11), encodedQuiz(t, created), cacheTTL).SetVal("OK")

	got, err := repo.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	score, spent := 90, 30
	updated := storedQuiz(t, 11)
	updated.Score = &score
	updated.TimeSpent = &spent
	updated.Completed = true
	inner.On("UpdateScore", mock.Anything, int64(11), 90, &spent).Return(updated, nil).Once()
	redisMock.ExpectSet(cache.QuizKey(11), encodedQuiz(t, updated), cacheTTL).SetVal("OK")

	got, err = repo.UpdateScore(ctx, 11, 90, &spent)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	inner.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedQuizRepository_UpdateScoreNotFoundEvicts(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	inner := new(mockQuizRepository)
	repo := NewCachedQuizRepository(inner, adapter.NewRedisCacheAdapter(client), cacheTTL)

	inner.On("UpdateScore", mock.Anything, int64(3), 10, (*int)(nil)).Return(nil, domain.NewQuizNotFoundError(3)).Once()
	redisMock.ExpectDel(cache.QuizKey(3)).SetVal(0)

	_, err := repo.UpdateScore(context.Background(), 3, 10, nil)

	assert.True(t, domain.IsNotFound(err))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// blockingCache always misses so every caller goes to the inner repository.
type blockingCache struct{}

func (blockingCache) Get(context.Context, string) (string, error) { return "", domain.ErrCacheMiss }
func (blockingCache) Set(context.Context, string, string, time.Duration) error {
	return nil
}
func (blockingCache) Delete(context.Context, string) error { return nil }
func (blockingCache) Ping(context.Context) error           { return nil }

type slowRepository struct {
	domain.QuizRepository
	calls   atomic.Int32
	release chan struct{}
	quiz    *domain.Quiz
}

func (s *slowRepository) GetByID(context.Context, int64) (*domain.Quiz, error) {
	s.calls.Add(1)
	<-s.release
	return s.quiz, nil
}

func TestCachedQuizRepository_GetByID_CollapsesConcurrentMisses(t *testing.T) {
	inner := &slowRepository{release: make(chan struct{}), quiz: storedQuiz(t, 1)}
	repo := NewCachedQuizRepository(inner, blockingCache{}, cacheTTL)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*domain.Quiz, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := repo.GetByID(context.Background(), 1)
			assert.NoError(t, err)
			results[i] = q
		}(i)
	}

	assert.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.LessOrEqual(t, inner.calls.Load(), int32(callers))
	for _, q := range results {
		require.NotNil(t, q)
		assert.Equal(t, int64(1), q.ID)
	}
}

// ctxRepository fails like a database driver once its context is done.
type ctxRepository struct {
	slowRepository
}

func (r *ctxRepository) GetByID(ctx context.Context, id int64) (*domain.Quiz, error) {
	r.calls.Add(1)
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.quiz, nil
}

func TestCachedQuizRepository_GetByID_SharedLoadSurvivesCallerCancel(t *testing.T) {
	inner := &ctxRepository{slowRepository{release: make(chan struct{}), quiz: storedQuiz(t, 3)}}
	repo := NewCachedQuizRepository(inner, blockingCache{}, cacheTTL)

	firstCtx, cancel := context.WithCancel(context.Background())
	type result struct {
		quiz *domain.Quiz
		err  error
	}
	first := make(chan result, 1)
	go func() {
		q, err := repo.GetByID(firstCtx, 3)
		first <- result{q, err}
	}()
	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan result, 1)
	go func() {
		q, err := repo.GetByID(context.Background(), 3)
		second <- result{q, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(inner.release)

	for _, ch := range []chan result{first, second} {
		r := <-ch
		require.NoError(t, r.err)
		assert.Equal(t, int64(3), r.quiz.ID)
	}
}
