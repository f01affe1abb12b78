package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"studyquiz/internal/domain"
	"studyquiz/internal/session"
	"studyquiz/internal/validation"

	"github.com/samber/lo"
)

const maxLineBytes = 1 << 20

var errQuit = errors.New("quit")

type quizAPI interface {
	CreateQuiz(ctx context.Context, form domain.StudyForm) (*domain.Quiz, error)
	SubmitScore(ctx context.Context, quizID int64, score int, timeSpent *int) (*domain.Quiz, error)
}

// formInput is the study form as typed by the user, before validation.
type formInput struct {
	Subject    string
	GradeLevel string
	Materials  string
	StudyMode  string
}

type runner struct {
	api       quizAPI
	in        *bufio.Scanner
	out       io.Writer
	validator *validation.Validator
	opts      []session.Option
}

func newRunner(api quizAPI, in io.Reader, out io.Writer, opts ...session.Option) *runner {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &runner{
		api:       api,
		in:        sc,
		out:       out,
		validator: validation.NewValidator(),
		opts:      opts,
	}
}

// Run plays quizzes until the user quits or input ends.
func (r *runner) Run(ctx context.Context, input formInput) error {
	form, err := r.collectForm(input)
	if err != nil {
		return ignoreQuit(err)
	}
	for {
		r.printf("Generating quiz on %s for %s...\n", form.Subject, form.GradeLevel)
		quiz, err := r.api.CreateQuiz(ctx, form)
		if err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}
		s, err := session.New(quiz, r.api, r.opts...)
		if err != nil {
			return err
		}
		r.printf("Quiz #%d ready: %d questions (%s mode)\n", quiz.ID, len(quiz.Questions), s.Mode())

		next, err := r.play(ctx, s)
		if err != nil {
			return ignoreQuit(err)
		}
		form = next
	}
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// collectForm prompts for missing or invalid fields until the form validates.
func (r *runner) collectForm(in formInput) (domain.StudyForm, error) {
	for {
		prompts := []struct {
			field *string
			label string
		}{
			{&in.Subject, "Subject"},
			{&in.GradeLevel, "Grade level"},
			{&in.Materials, "Study materials"},
		}
		for _, p := range prompts {
			for strings.TrimSpace(*p.field) == "" {
				line, ok := r.readLine(p.label + ": ")
				if !ok {
					return domain.StudyForm{}, errQuit
				}
				*p.field = line
			}
		}

		form, errs := r.validator.ValidateStudyForm(in.Subject, in.GradeLevel, in.Materials, in.StudyMode)
		if len(errs) == 0 {
			return form, nil
		}
		for _, e := range errs {
			r.printf("%s\n", e.Message)
			switch e.Context["field"] {
			case "subject":
				in.Subject = ""
			case "gradeLevel":
				in.GradeLevel = ""
			case "materials":
				in.Materials = ""
			case "studyMode":
				in.StudyMode = ""
			}
		}
	}
}

// play runs one quiz and returns the form for the next one when the user restarts.
func (r *runner) play(ctx context.Context, s *session.Session) (domain.StudyForm, error) {
	last := session.State{Phase: -1}
	for {
		st := s.State()
		if st.Phase == session.PhaseCompleted {
			form, review, err := r.finish(s)
			if err != nil || !review {
				return form, err
			}
			continue
		}
		q, _, _ := s.Current()
		if st != last && st.Phase == session.PhaseAnswering {
			r.showQuestion(s, st, q)
		}
		last = st

		line, ok := r.readLine(promptFor(st, q))
		if !ok {
			return domain.StudyForm{}, errQuit
		}
		switch strings.ToLower(line) {
		case "q":
			return domain.StudyForm{}, errQuit
		case "p":
			if _, err := s.Previous(); err != nil {
				r.printf("%v\n", err)
			}
			continue
		case "n":
			if _, err := s.Next(ctx); err != nil {
				r.printf("%v\n", err)
				if !errors.Is(err, session.ErrAnswerRequired) {
					r.printf("Type n to try again.\n")
				}
			}
			continue
		case "":
			continue
		}

		if st.Phase != session.PhaseAnswering {
			r.printf("Type n for the next question.\n")
			continue
		}
		answer, err := parseAnswer(q, line)
		if err != nil {
			r.printf("%v\n", err)
			continue
		}
		fb, err := s.Select(answer)
		if err != nil {
			r.printf("%v\n", err)
			continue
		}
		r.showFeedback(fb)
	}
}

// finish shows the results and reports whether a review pass was started.
func (r *runner) finish(s *session.Session) (domain.StudyForm, bool, error) {
	score, _ := s.FinalScore()
	total := len(s.Quiz().Questions)
	r.printf("\nQuiz complete! Score: %d%%\n", score)
	r.printf("%s\n", domain.BandFor(score).Message())
	r.printf("Correct answers: %d/%d\n", s.LiveTally(), total)
	r.printf("Time: %s\n", s.Elapsed().Round(time.Second))

	for {
		menu := "s = study again, q = quit: "
		if len(s.IncorrectIndices()) > 0 {
			menu = "r = review incorrect answers, " + menu
		}
		line, ok := r.readLine(menu)
		if !ok {
			return domain.StudyForm{}, false, errQuit
		}
		switch strings.ToLower(line) {
		case "r":
			if _, err := s.StartReview(); err != nil {
				r.printf("%v\n", err)
				continue
			}
			r.printf("Reviewing %d incorrect answers.\n", s.State().Total)
			return domain.StudyForm{}, true, nil
		case "s":
			form, err := s.Restart()
			return form, false, err
		case "q":
			return domain.StudyForm{}, false, errQuit
		}
	}
}

func (r *runner) showQuestion(s *session.Session, st session.State, q domain.Question) {
	label := "Question"
	if st.Review {
		label = "Review question"
	}
	r.printf("\n%s %d of %d (score so far: %d)\n%s\n", label, st.Position+1, st.Total, s.LiveTally(), q.Text)
	for i, opt := range q.Options {
		r.printf("  %s) %s\n", letter(i), opt)
	}
	if prev := s.Answer(st.Question); prev.Set {
		r.printf("Your answer: %s\n", answerText(q, prev))
	}
	if s.Mode() == domain.StudyModeFlashcard {
		r.printf("Answer: %s\n%s\n", q.CorrectAnswerText(), q.Explanation)
	}
}

func (r *runner) showFeedback(fb session.Feedback) {
	if fb.Correct {
		r.printf("Correct!\n")
	} else {
		r.printf("Incorrect. The correct answer is: %s\n", fb.CorrectAnswer)
	}
	r.printf("%s\n", fb.Explanation)
}

func promptFor(st session.State, q domain.Question) string {
	if st.Phase == session.PhaseFeedback {
		return "n = next, p = previous, q = quit: "
	}
	if q.Type == domain.FillInBlank {
		return "Type your answer (n/p/q): "
	}
	return fmt.Sprintf("Choose A-%s (n/p/q): ", letter(len(q.Options)-1))
}

func parseAnswer(q domain.Question, line string) (domain.Answer, error) {
	if q.Type == domain.FillInBlank {
		return domain.TextAnswer(line), nil
	}
	if q.Type == domain.TrueFalse {
		switch strings.ToLower(line) {
		case "true", "t":
			return domain.IndexAnswer(0), nil
		case "false", "f":
			return domain.IndexAnswer(1), nil
		}
	}
	if len(line) == 1 {
		idx := int(strings.ToUpper(line)[0]) - 'A'
		if idx >= 0 && idx < len(q.Options) {
			return domain.IndexAnswer(idx), nil
		}
	}
	return domain.Answer{}, fmt.Errorf("choose a letter between A and %s", letter(len(q.Options)-1))
}

func answerText(q domain.Question, a domain.Answer) string {
	if q.Type == domain.FillInBlank {
		return a.Text
	}
	opt, _ := lo.Nth(q.Options, a.Index)
	return fmt.Sprintf("%s) %s", letter(a.Index), opt)
}

func letter(i int) string {
	return string(rune('A' + i))
}

func (r *runner) readLine(prompt string) (string, bool) {
	r.printf("%s", prompt)
	if !r.in.Scan() {
		r.printf("\n")
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}
