// Package session drives a student through a quiz: answering, feedback,
// score submission and an optional review pass over incorrect answers.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"studyquiz/internal/domain"

	"github.com/samber/lo"
)

// Phase of the session within the current pass.
type Phase int

const (
	PhaseAnswering Phase = iota
	PhaseFeedback
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswering:
		return "answering"
	case PhaseFeedback:
		return "feedback"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var (
	ErrNoQuestions    = errors.New("quiz has no questions")
	ErrInvalidState   = errors.New("operation not allowed in current state")
	ErrAnswerRequired = errors.New("answer the current question first")
	ErrNoPrevious     = errors.New("already at the first question")
	ErrNothingReview  = errors.New("no incorrect answers to review")
	ErrInvalidAnswer  = errors.New("answer does not fit the question")
)

// ScoreSubmitter persists the final score; *client.Client satisfies it.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, quizID int64, score int, timeSpent *int) (*domain.Quiz, error)
}

// State is a snapshot for rendering.
type State struct {
	Phase    Phase
	Review   bool
	Position int // within the current pass
	Total    int // length of the current pass
	Question int // index into the quiz's questions
}

// Feedback is shown after an answer is selected.
type Feedback struct {
	Correct       bool
	CorrectAnswer string
	Explanation   string
}

// Session is not safe for concurrent use.
type Session struct {
	quiz      *domain.Quiz
	submitter ScoreSubmitter
	now       func() time.Time

	answers   []domain.Answer
	phase     Phase
	pos       int
	review    bool
	reviewSet []int
	incorrect []int
	mode      domain.StudyMode
	submitted *int
	startedAt time.Time
}

type Option func(*Session)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithMode overrides the quiz's display mode.
func WithMode(mode domain.StudyMode) Option {
	return func(s *Session) { s.mode = mode }
}

// New starts a session at the first question.
func New(quiz *domain.Quiz, submitter ScoreSubmitter, opts ...Option) (*Session, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	s := &Session{
		quiz:      quiz,
		submitter: submitter,
		now:       time.Now,
		answers:   make([]domain.Answer, len(quiz.Questions)),
		phase:     PhaseAnswering,
		mode:      quiz.StudyMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mode == "" {
		s.mode = domain.StudyModeStandard
	}
	s.startedAt = s.now()
	return s, nil
}

func (s *Session) Quiz() *domain.Quiz { return s.quiz }

func (s *Session) Mode() domain.StudyMode { return s.mode }

// SetMode toggles the display mode; it never changes recorded answers.
func (s *Session) SetMode(mode domain.StudyMode) { s.mode = mode }

func (s *Session) passLength() int {
	if s.review {
		return len(s.reviewSet)
	}
	return len(s.quiz.Questions)
}

func (s *Session) questionIndex() int {
	if s.review {
		return s.reviewSet[s.pos]
	}
	return s.pos
}

func (s *Session) State() State {
	st := State{Phase: s.phase, Review: s.review, Position: s.pos, Total: s.passLength()}
	if s.phase != PhaseCompleted {
		st.Question = s.questionIndex()
	}
	return st
}

// Current returns the question being shown and its index in the quiz.
func (s *Session) Current() (domain.Question, int, error) {
	if s.phase == PhaseCompleted {
		return domain.Question{}, 0, ErrInvalidState
	}
	qi := s.questionIndex()
	return s.quiz.Questions[qi], qi, nil
}

// Answer returns the stored answer for quiz question i.
func (s *Session) Answer(i int) domain.Answer {
	if i < 0 || i >= len(s.answers) {
		return domain.Answer{}
	}
	return s.answers[i]
}

// Select records an answer for the current question and moves to feedback.
func (s *Session) Select(a domain.Answer) (Feedback, error) {
	if s.phase != PhaseAnswering {
		return Feedback{}, ErrInvalidState
	}
	qi := s.questionIndex()
	q := s.quiz.Questions[qi]
	if err := checkAnswer(q, a); err != nil {
		return Feedback{}, err
	}
	a.Set = true
	s.answers[qi] = a
	s.phase = PhaseFeedback
	return Feedback{
		Correct:       q.IsCorrect(a),
		CorrectAnswer: q.CorrectAnswerText(),
		Explanation:   q.Explanation,
	}, nil
}

func checkAnswer(q domain.Question, a domain.Answer) error {
	if q.Type == domain.FillInBlank {
		if strings.TrimSpace(a.Text) == "" {
			return ErrInvalidAnswer
		}
		return nil
	}
	if a.Index < 0 || a.Index >= len(q.Options) {
		return ErrInvalidAnswer
	}
	return nil
}

// CanNext reports whether Next is enabled. Flashcard mode always allows progression.
func (s *Session) CanNext() bool {
	switch {
	case s.phase == PhaseCompleted:
		return false
	case s.phase == PhaseFeedback, s.mode == domain.StudyModeFlashcard:
		return true
	default:
		return s.answers[s.questionIndex()].Set
	}
}

// CanPrevious reports whether Previous is enabled.
func (s *Session) CanPrevious() bool {
	return s.phase != PhaseCompleted && s.pos > 0
}

// Next advances within the pass. Leaving the last question of the primary
// pass submits the score; a failed submission leaves the session unchanged so
// the caller can retry. Leaving the last review question ends review without
// resubmitting.
func (s *Session) Next(ctx context.Context) (State, error) {
	if !s.CanNext() {
		if s.phase == PhaseCompleted {
			return s.State(), ErrInvalidState
		}
		return s.State(), ErrAnswerRequired
	}

	if s.pos+1 < s.passLength() {
		s.pos++
		s.phase = PhaseAnswering
		return s.State(), nil
	}

	if s.review {
		s.review = false
		s.reviewSet = nil
		s.pos = 0
		s.incorrect = s.computeIncorrect()
		s.phase = PhaseCompleted
		return s.State(), nil
	}

	score := domain.ComputeScore(s.LiveTally(), len(s.quiz.Questions))
	elapsed := int(math.Round(s.now().Sub(s.startedAt).Seconds()))
	if s.submitter != nil {
		if _, err := s.submitter.SubmitScore(ctx, s.quiz.ID, score, &elapsed); err != nil {
			return s.State(), fmt.Errorf("submit score: %w", err)
		}
	}
	s.submitted = &score
	s.incorrect = s.computeIncorrect()
	s.pos = 0
	s.phase = PhaseCompleted
	return s.State(), nil
}

// Previous returns to the prior question keeping its stored answer.
func (s *Session) Previous() (State, error) {
	if s.phase == PhaseCompleted {
		return s.State(), ErrInvalidState
	}
	if s.pos == 0 {
		return s.State(), ErrNoPrevious
	}
	s.pos--
	s.phase = PhaseAnswering
	return s.State(), nil
}

// StartReview replays only the incorrectly answered questions. Their previous
// answers are cleared so each must be answered again.
func (s *Session) StartReview() (State, error) {
	if s.phase != PhaseCompleted {
		return s.State(), ErrInvalidState
	}
	if len(s.incorrect) == 0 {
		return s.State(), ErrNothingReview
	}
	s.reviewSet = append([]int(nil), s.incorrect...)
	for _, qi := range s.reviewSet {
		s.answers[qi] = domain.Answer{}
	}
	s.review = true
	s.pos = 0
	s.phase = PhaseAnswering
	return s.State(), nil
}

// Restart returns the study form for creating a new quiz on the same material.
func (s *Session) Restart() (domain.StudyForm, error) {
	if s.phase != PhaseCompleted {
		return domain.StudyForm{}, ErrInvalidState
	}
	form := s.quiz.Form()
	form.StudyMode = s.mode
	return form, nil
}

// LiveTally counts stored answers that are correct, including review corrections.
func (s *Session) LiveTally() int {
	return lo.CountBy(lo.Range(len(s.answers)), func(i int) bool {
		return s.quiz.Questions[i].IsCorrect(s.answers[i])
	})
}

// Answered counts questions with a stored answer.
func (s *Session) Answered() int {
	return lo.CountBy(s.answers, func(a domain.Answer) bool { return a.Set })
}

// FinalScore is the score submitted at the end of the primary pass.
func (s *Session) FinalScore() (int, bool) {
	if s.submitted == nil {
		return 0, false
	}
	return *s.submitted, true
}

// IncorrectIndices lists quiz question indices answered wrongly or skipped,
// as of the end of the last pass.
func (s *Session) IncorrectIndices() []int {
	return append([]int(nil), s.incorrect...)
}

func (s *Session) computeIncorrect() []int {
	return lo.Filter(lo.Range(len(s.answers)), func(i int, _ int) bool {
		return !s.quiz.Questions[i].IsCorrect(s.answers[i])
	})
}

// Elapsed is the time since the session started.
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.startedAt)
}
