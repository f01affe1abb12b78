package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionType tags the variant of a Question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillInBlank    QuestionType = "fill_in_blank"
)

// MultipleChoiceOptions is the fixed option count of a multiple-choice question.
const MultipleChoiceOptions = 4

// TrueFalseOptions are the options every true/false question carries.
var TrueFalseOptions = []string{"True", "False"}

// ParseQuestionType maps a configured or model-supplied type name to a QuestionType.
// An empty name means multiple choice.
func ParseQuestionType(s string) (QuestionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "multiple_choice", "multiple-choice", "mcq":
		return MultipleChoice, nil
	case "true_false", "true-false", "truefalse", "boolean":
		return TrueFalse, nil
	case "fill_in_blank", "fill-in-blank", "fill_in_the_blank", "fill-in-the-blank":
		return FillInBlank, nil
	default:
		return "", fmt.Errorf("unknown question type %q", s)
	}
}

// Question is immutable once constructed. Indexed variants use CorrectIndex;
// fill-in-blank uses CorrectText and has no options.
type Question struct {
	Type         QuestionType
	Text         string
	Options      []string
	CorrectIndex int
	CorrectText  string
	Explanation  string
}

var (
	errEmptyQuestion    = errors.New("question text is required")
	errEmptyExplanation = errors.New("explanation is required")
)

func NewMultipleChoice(text string, options []string, correct int, explanation string) (Question, error) {
	if err := checkCommon(text, explanation); err != nil {
		return Question{}, err
	}
	if len(options) != MultipleChoiceOptions {
		return Question{}, fmt.Errorf("multiple choice needs exactly %d options, got %d", MultipleChoiceOptions, len(options))
	}
	for i, o := range options {
		if strings.TrimSpace(o) == "" {
			return Question{}, fmt.Errorf("option %d is empty", i)
		}
	}
	if correct < 0 || correct >= len(options) {
		return Question{}, fmt.Errorf("correct answer %d out of range [0,%d]", correct, len(options)-1)
	}
	return Question{
		Type:         MultipleChoice,
		Text:         text,
		Options:      append([]string(nil), options...),
		CorrectIndex: correct,
		Explanation:  explanation,
	}, nil
}

func NewTrueFalse(text string, correct int, explanation string) (Question, error) {
	if err := checkCommon(text, explanation); err != nil {
		return Question{}, err
	}
	if correct < 0 || correct > 1 {
		return Question{}, fmt.Errorf("true/false correct answer %d out of range [0,1]", correct)
	}
	return Question{
		Type:         TrueFalse,
		Text:         text,
		Options:      append([]string(nil), TrueFalseOptions...),
		CorrectIndex: correct,
		Explanation:  explanation,
	}, nil
}

func NewFillInBlank(text, answer, explanation string) (Question, error) {
	if err := checkCommon(text, explanation); err != nil {
		return Question{}, err
	}
	if strings.TrimSpace(answer) == "" {
		return Question{}, errors.New("fill-in-blank answer is required")
	}
	return Question{
		Type:        FillInBlank,
		Text:        text,
		CorrectText: answer,
		Explanation: explanation,
	}, nil
}

func checkCommon(text, explanation string) error {
	if strings.TrimSpace(text) == "" {
		return errEmptyQuestion
	}
	if strings.TrimSpace(explanation) == "" {
		return errEmptyExplanation
	}
	return nil
}

// IsCorrect reports whether a answers q.
func (q Question) IsCorrect(a Answer) bool {
	if !a.Set {
		return false
	}
	if q.Type == FillInBlank {
		return normalizeAnswer(a.Text) == normalizeAnswer(q.CorrectText)
	}
	return a.Index == q.CorrectIndex
}

// CorrectAnswerText renders the correct answer for display.
func (q Question) CorrectAnswerText() string {
	if q.Type == FillInBlank {
		return q.CorrectText
	}
	return q.Options[q.CorrectIndex]
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Answer is a user's response to one question. Set is false until answered.
type Answer struct {
	Set   bool
	Index int
	Text  string
}

func IndexAnswer(i int) Answer { return Answer{Set: true, Index: i} }
func TextAnswer(s string) Answer { return Answer{Set: true, Text: s} }

// RawQuestion is the wire shape shared by the API and the LLM response.
type RawQuestion struct {
	Type          string          `json:"type,omitempty"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}

// ToQuestion builds the tagged variant, rejecting items that do not fit their declared type.
func (r RawQuestion) ToQuestion() (Question, error) {
	qt, err := ParseQuestionType(r.Type)
	if err != nil {
		return Question{}, err
	}
	switch qt {
	case FillInBlank:
		var answer string
		if err := json.Unmarshal(r.CorrectAnswer, &answer); err != nil {
			return Question{}, fmt.Errorf("fill-in-blank correctAnswer must be a string: %w", err)
		}
		return NewFillInBlank(r.Question, answer, r.Explanation)
	case TrueFalse:
		idx, err := decodeIndex(r.CorrectAnswer)
		if err != nil {
			return Question{}, err
		}
		if len(r.Options) != 0 {
			if idx, err = trueFalseIndex(r.Options, idx); err != nil {
				return Question{}, err
			}
		}
		return NewTrueFalse(r.Question, idx, r.Explanation)
	default:
		idx, err := decodeIndex(r.CorrectAnswer)
		if err != nil {
			return Question{}, err
		}
		return NewMultipleChoice(r.Question, r.Options, idx, r.Explanation)
	}
}

// trueFalseIndex maps an index into the supplied labels onto TrueFalseOptions.
// The labels must be True and False in either order.
func trueFalseIndex(options []string, idx int) (int, error) {
	if len(options) != len(TrueFalseOptions) {
		return 0, fmt.Errorf("true/false needs %d options, got %d", len(TrueFalseOptions), len(options))
	}
	positions := make([]int, len(options))
	seen := make(map[int]bool, len(options))
	for i, o := range options {
		pos := -1
		for j, label := range TrueFalseOptions {
			if strings.EqualFold(strings.TrimSpace(o), label) {
				pos = j
			}
		}
		if pos < 0 || seen[pos] {
			return 0, fmt.Errorf("true/false options must be True and False, got %q", options)
		}
		seen[pos] = true
		positions[i] = pos
	}
	if idx < 0 || idx >= len(positions) {
		return 0, fmt.Errorf("true/false correct answer %d out of range [0,1]", idx)
	}
	return positions[idx], nil
}

// decodeIndex accepts integral JSON numbers only.
func decodeIndex(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, errors.New("correctAnswer must be a number")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("correctAnswer must be a number: %w", err)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("correctAnswer %v is not an integer", f)
	}
	return int(f), nil
}

func (q Question) toRaw() RawQuestion {
	var correct json.RawMessage
	if q.Type == FillInBlank {
		correct, _ = json.Marshal(q.CorrectText)
	} else {
		correct, _ = json.Marshal(q.CorrectIndex)
	}
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return RawQuestion{
		Type:          string(q.Type),
		Question:      q.Text,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   q.Explanation,
	}
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.toRaw())
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw RawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := raw.ToQuestion()
	if err != nil {
		return fmt.Errorf("invalid question %q: %w", raw.Question, err)
	}
	*q = parsed
	return nil
}
