package domain

import (
	"math"
	"strings"
	"time"
)

// StudyMode is the display mode requested when the quiz was created.
type StudyMode string

const (
	StudyModeStandard  StudyMode = "standard"
	StudyModeFlashcard StudyMode = "flashcard"
)

// ParseStudyMode defaults an empty mode to standard.
func ParseStudyMode(s string) (StudyMode, bool) {
	switch StudyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StudyModeStandard:
		return StudyModeStandard, true
	case StudyModeFlashcard:
		return StudyModeFlashcard, true
	default:
		return "", false
	}
}

// StudyForm is the user's request to generate a quiz.
type StudyForm struct {
	Subject    string
	GradeLevel string
	Materials  string
	StudyMode  StudyMode
}

// Quiz represents a persisted quiz. Questions and materials never change after
// creation; Score, Completed and TimeSpent are set once by score submission.
type Quiz struct {
	ID         int64
	Subject    string
	GradeLevel string
	Materials  string
	Questions  []Question
	Score      *int
	Completed  bool
	TimeSpent  *int // seconds
	StudyMode  StudyMode
	CreatedAt  time.Time
}

// NewQuiz creates an uncompleted quiz from a study form and its questions.
func NewQuiz(form StudyForm, questions []Question) *Quiz {
	mode := form.StudyMode
	if mode == "" {
		mode = StudyModeStandard
	}
	return &Quiz{
		Subject:    form.Subject,
		GradeLevel: form.GradeLevel,
		Materials:  form.Materials,
		Questions:  questions,
		StudyMode:  mode,
		CreatedAt:  time.Now().UTC(),
	}
}

// Form returns the study form the quiz was created from.
func (q *Quiz) Form() StudyForm {
	return StudyForm{
		Subject:    q.Subject,
		GradeLevel: q.GradeLevel,
		Materials:  q.Materials,
		StudyMode:  q.StudyMode,
	}
}

const (
	MinScore = 0
	MaxScore = 100
)

// ComputeScore returns round(100 * correct / total). An empty quiz scores 0.
func ComputeScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// PerformanceBand is the qualitative label shown with a final score.
type PerformanceBand string

const (
	BandExcellent      PerformanceBand = "excellent"
	BandGood           PerformanceBand = "good"
	BandKeepPracticing PerformanceBand = "keep_practicing"
)

func BandFor(score int) PerformanceBand {
	switch {
	case score >= 85:
		return BandExcellent
	case score >= 70:
		return BandGood
	default:
		return BandKeepPracticing
	}
}

// Message is the line shown to the student for a band.
func (b PerformanceBand) Message() string {
	switch b {
	case BandExcellent:
		return "Excellent work! You've mastered this subject!"
	case BandGood:
		return "Good job! Keep practicing to improve your score."
	default:
		return "Keep studying! Practice makes perfect."
	}
}
