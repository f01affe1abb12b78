package quizgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"studyquiz/internal/config"
	"studyquiz/internal/domain"
	"studyquiz/internal/logger"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrInsufficientQuestions is the fallback cause when the model returned too few usable items.
var ErrInsufficientQuestions = errors.New("not enough valid questions generated")

// Generator implements domain.QuestionGenerator with a single LLM call and a
// deterministic-shape fallback.
type Generator struct {
	completer    domain.TextCompleter
	requestCount int
	targetCount  int
	minValid     int
	types        []domain.QuestionType
	tracer       trace.Tracer

	shuffle func(n int, swap func(i, j int))
	intn    func(n int) int
}

type Option func(*Generator)

// WithRandom replaces the shuffle and index sources, for tests.
func WithRandom(shuffle func(n int, swap func(i, j int)), intn func(n int) int) Option {
	return func(g *Generator) {
		g.shuffle = shuffle
		g.intn = intn
	}
}

// NewGenerator builds a generator from the generator config section.
func NewGenerator(completer domain.TextCompleter, cfg config.GeneratorConfig, opts ...Option) (*Generator, error) {
	if completer == nil {
		return nil, errors.New("text completer cannot be nil")
	}
	if cfg.TargetCount <= 0 || cfg.MinValid < cfg.TargetCount || cfg.RequestCount < cfg.MinValid {
		return nil, fmt.Errorf("invalid generator counts: request=%d min_valid=%d target=%d",
			cfg.RequestCount, cfg.MinValid, cfg.TargetCount)
	}

	types := make([]domain.QuestionType, 0, len(cfg.QuestionTypes))
	for _, name := range cfg.QuestionTypes {
		qt, err := domain.ParseQuestionType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, qt)
	}
	types = lo.Uniq(types)
	if len(types) == 0 {
		types = []domain.QuestionType{domain.MultipleChoice}
	}

	g := &Generator{
		completer:    completer,
		requestCount: cfg.RequestCount,
		targetCount:  cfg.TargetCount,
		minValid:     cfg.MinValid,
		types:        types,
		tracer:       otel.Tracer("studyquiz/quizgen"),
		shuffle:      rand.Shuffle,
		intn:         rand.Intn,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate implements domain.QuestionGenerator
func (g *Generator) Generate(ctx context.Context, subject, gradeLevel, materials string) domain.GenerationResult {
	ctx, span := g.tracer.Start(ctx, "quizgen.Generate", trace.WithAttributes(
		attribute.String("quiz.subject", subject),
		attribute.String("quiz.grade_level", gradeLevel),
		attribute.Int("quizgen.request_count", g.requestCount),
	))
	defer span.End()

	start := time.Now()
	questions, err := g.generate(ctx, subject, gradeLevel, materials)
	if err != nil {
		logger.Get().Warn("Question generation failed, using fallback questions",
			zap.String("subject", subject),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		span.SetAttributes(attribute.String("quizgen.provenance", string(domain.ProvenanceFallback)))
		return domain.GenerationResult{
			Questions:  g.fallback(subject, materials),
			Provenance: domain.ProvenanceFallback,
			Cause:      err,
		}
	}

	logger.Get().Info("Generated quiz questions",
		zap.String("subject", subject),
		zap.Int("count", len(questions)),
		zap.Duration("elapsed", time.Since(start)))
	span.SetAttributes(attribute.String("quizgen.provenance", string(domain.ProvenanceGenerated)))
	return domain.GenerationResult{
		Questions:  questions,
		Provenance: domain.ProvenanceGenerated,
	}
}

func (g *Generator) generate(ctx context.Context, subject, gradeLevel, materials string) ([]domain.Question, error) {
	content, err := g.completer.Complete(ctx,
		systemPrompt(subject),
		userPrompt(subject, gradeLevel, materials, g.requestCount, g.types))
	if err != nil {
		return nil, domain.NewLLMServiceError(err)
	}

	valid, rejected, err := parseQuestions(content)
	if err != nil {
		return nil, err
	}
	if rejected > 0 {
		logger.Get().Debug("Discarded invalid generated questions",
			zap.Int("rejected", rejected),
			zap.Int("valid", len(valid)))
	}
	if len(valid) < g.minValid {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientQuestions, len(valid), g.minValid)
	}

	g.shuffle(len(valid), func(i, j int) { valid[i], valid[j] = valid[j], valid[i] })
	return valid[:g.targetCount], nil
}

// fallback synthesizes TargetCount placeholder questions cycling the configured types.
func (g *Generator) fallback(subject, materials string) []domain.Question {
	topic := firstWords(materials, 3)
	return lo.Times(g.targetCount, func(i int) domain.Question {
		n := i + 1
		text := fmt.Sprintf("Question %d about %s: %s...", n, subject, topic)
		explanation := fmt.Sprintf("Explanation for the correct answer to question %d", n)

		var (
			q   domain.Question
			err error
		)
		switch g.types[i%len(g.types)] {
		case domain.TrueFalse:
			q, err = domain.NewTrueFalse(text, g.intn(len(domain.TrueFalseOptions)), explanation)
		case domain.FillInBlank:
			q, err = domain.NewFillInBlank(text+" ___", fmt.Sprintf("answer %d", n), explanation)
		default:
			options := lo.Map([]string{"A", "B", "C", "D"}, func(letter string, _ int) string {
				return fmt.Sprintf("Answer %s for question %d", letter, n)
			})
			q, err = domain.NewMultipleChoice(text, options, g.intn(domain.MultipleChoiceOptions), explanation)
		}
		if err != nil {
			// Only reachable if the templates above stop satisfying the constructors.
			panic(fmt.Sprintf("quizgen: invalid fallback question: %v", err))
		}
		return q
	})
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

var _ domain.QuestionGenerator = (*Generator)(nil)
