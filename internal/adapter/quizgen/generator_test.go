package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"studyquiz/internal/config"
	"studyquiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	content    string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.content, f.err
}

func defaultGenConfig() config.GeneratorConfig {
	return config.GeneratorConfig{
		RequestCount:  12,
		TargetCount:   10,
		MinValid:      10,
		QuestionTypes: []string{"multiple_choice"},
	}
}

func noShuffle(int, func(i, j int)) {}

func fixedIntn(v int) func(int) int {
	return func(n int) int { return v % n }
}

func mcItem(i int) map[string]interface{} {
	return map[string]interface{}{
		"question":      fmt.Sprintf("Question %d?", i),
		"options":       []string{"a", "b", "c", "d"},
		"correctAnswer": i % 4,
		"explanation":   fmt.Sprintf("Because %d", i),
	}
}

func responseJSON(t *testing.T, items ...map[string]interface{}) string {
	t.Helper()
	b, err := json.Marshal(map[string]interface{}{"questions": items})
	require.NoError(t, err)
	return string(b)
}

func validItems(n int) []map[string]interface{} {
	items := make([]map[string]interface{}, n)
	for i := range items {
		items[i] = mcItem(i)
	}
	return items
}

func newTestGenerator(t *testing.T, c domain.TextCompleter, cfg config.GeneratorConfig) *Generator {
	t.Helper()
	g, err := NewGenerator(c, cfg, WithRandom(noShuffle, fixedIntn(1)))
	require.NoError(t, err)
	return g
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := NewGenerator(nil, defaultGenConfig())
	assert.Error(t, err)

	cfg := defaultGenConfig()
	cfg.MinValid = 5
	_, err = NewGenerator(&fakeCompleter{}, cfg)
	assert.Error(t, err)

	cfg = defaultGenConfig()
	cfg.QuestionTypes = []string{"essay"}
	_, err = NewGenerator(&fakeCompleter{}, cfg)
	assert.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	c := &fakeCompleter{content: responseJSON(t, validItems(12)...)}
	g := newTestGenerator(t, c, defaultGenConfig())

	res := g.Generate(context.Background(), "Biology", "9th grade", "Photosynthesis converts light into chemical energy")

	assert.Equal(t, domain.ProvenanceGenerated, res.Provenance)
	assert.NoError(t, res.Cause)
	require.Len(t, res.Questions, 10)
	assert.Equal(t, "Question 0?", res.Questions[0].Text)
	assert.Equal(t, 1, c.calls)
	assert.Contains(t, c.lastUser, "Generate 12 challenging questions about Biology")
	assert.Equal(t, systemPromptGeneral, c.lastSystem)
}

func TestGenerate_ShufflesBeforeTruncating(t *testing.T) {
	c := &fakeCompleter{content: responseJSON(t, validItems(12)...)}
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	g, err := NewGenerator(c, defaultGenConfig(), WithRandom(reverse, fixedIntn(0)))
	require.NoError(t, err)

	res := g.Generate(context.Background(), "Math", "5", "Fractions and decimals basics")

	require.Len(t, res.Questions, 10)
	assert.Equal(t, "Question 11?", res.Questions[0].Text)
	assert.Equal(t, "Question 2?", res.Questions[9].Text)
}

func TestGenerate_DiscardsInvalidItems(t *testing.T) {
	items := validItems(10)
	bad := mcItem(99)
	bad["options"] = []string{"only", "three", "options"}
	stringAnswer := mcItem(98)
	stringAnswer["correctAnswer"] = "2"
	items = append(items, bad, stringAnswer)

	c := &fakeCompleter{content: responseJSON(t, items...)}
	g := newTestGenerator(t, c, defaultGenConfig())

	res := g.Generate(context.Background(), "History", "7", "The French revolution began in 1789")

	assert.Equal(t, domain.ProvenanceGenerated, res.Provenance)
	assert.Len(t, res.Questions, 10)
	for _, q := range res.Questions {
		assert.NotEqual(t, "Question 99?", q.Text)
		assert.NotEqual(t, "Question 98?", q.Text)
	}
}

func TestGenerate_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		cause   error
	}{
		{name: "transport error", err: errors.New("connection refused")},
		{name: "empty content", content: "", cause: errEmptyContent},
		{name: "malformed json", content: `{"questions": [`},
		{name: "missing questions key", content: `{"items": []}`, cause: errNoQuestionKey},
		{name: "too few valid", content: "", cause: ErrInsufficientQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := tt.content
			if tt.name == "too few valid" {
				content = responseJSON(t, validItems(9)...)
			}
			c := &fakeCompleter{content: content, err: tt.err}
			g := newTestGenerator(t, c, defaultGenConfig())

			res := g.Generate(context.Background(), "Chemistry", "10", "Atoms bond together to form molecules")

			assert.True(t, res.IsFallback())
			assert.Error(t, res.Cause)
			if tt.cause != nil {
				assert.ErrorIs(t, res.Cause, tt.cause)
			}
			require.Len(t, res.Questions, 10)
			assert.Equal(t, "Question 1 about Chemistry: Atoms bond together...", res.Questions[0].Text)
			assert.Equal(t, []string{
				"Answer A for question 1",
				"Answer B for question 1",
				"Answer C for question 1",
				"Answer D for question 1",
			}, res.Questions[0].Options)
			assert.Equal(t, 1, res.Questions[0].CorrectIndex)
			assert.Equal(t, 1, c.calls)
		})
	}
}

func TestGenerate_TransportErrorIsLLMServiceError(t *testing.T) {
	c := &fakeCompleter{err: errors.New("timeout")}
	g := newTestGenerator(t, c, defaultGenConfig())

	res := g.Generate(context.Background(), "Art", "3", "Colors and shapes in painting")

	var de *domain.DomainError
	require.ErrorAs(t, res.Cause, &de)
	assert.Equal(t, domain.CodeLLMServiceError, de.Code)
}

func TestGenerate_FallbackCyclesTypes(t *testing.T) {
	cfg := defaultGenConfig()
	cfg.QuestionTypes = []string{"multiple_choice", "true_false", "fill_in_blank"}
	g := newTestGenerator(t, &fakeCompleter{err: errors.New("down")}, cfg)

	res := g.Generate(context.Background(), "Physics", "11", "Newton laws of motion")

	require.Len(t, res.Questions, 10)
	assert.Equal(t, domain.MultipleChoice, res.Questions[0].Type)
	assert.Equal(t, domain.TrueFalse, res.Questions[1].Type)
	assert.Equal(t, domain.FillInBlank, res.Questions[2].Type)
	assert.Equal(t, domain.MultipleChoice, res.Questions[3].Type)
	assert.Equal(t, "answer 3", res.Questions[2].CorrectText)
}

func TestGenerate_EnglishPromptVariant(t *testing.T) {
	for _, subject := range []string{"English", "english", "אנגלית"} {
		c := &fakeCompleter{content: responseJSON(t, validItems(12)...)}
		g := newTestGenerator(t, c, defaultGenConfig())

		g.Generate(context.Background(), subject, "6", "Present simple and past simple tenses")

		assert.Equal(t, systemPromptEnglish, c.lastSystem, subject)
		assert.Contains(t, c.lastUser, "English language learning questions", subject)
	}
}

func TestParseQuestions_StripsThinkAndFences(t *testing.T) {
	body := responseJSON(t, validItems(2)...)
	content := "<think>\nlet me plan {not json}\n</think>\n```json\n" + body + "\n```"

	qs, rejected, err := parseQuestions(content)

	require.NoError(t, err)
	assert.Equal(t, 0, rejected)
	assert.Len(t, qs, 2)
}

func TestParseQuestions_MixedTypes(t *testing.T) {
	content := `{"questions": [
		{"type": "true_false", "question": "The sky is blue.", "options": ["True", "False"], "correctAnswer": 0, "explanation": "Rayleigh scattering."},
		{"type": "fill_in_blank", "question": "Water boils at ___ degrees Celsius.", "options": [], "correctAnswer": "100", "explanation": "At sea level."},
		{"type": "fill_in_blank", "question": "Bad item ___", "options": [], "correctAnswer": 3, "explanation": "Numeric answer is rejected."}
	]}`

	qs, rejected, err := parseQuestions(content)

	require.NoError(t, err)
	assert.Equal(t, 1, rejected)
	require.Len(t, qs, 2)
	assert.Equal(t, domain.TrueFalse, qs[0].Type)
	assert.Equal(t, "100", qs[1].CorrectText)
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "one two three", firstWords("one two three four", 3))
	assert.Equal(t, "one", firstWords("  one  ", 3))
	assert.Equal(t, "", firstWords("", 3))
}
