package quizgen

import (
	"fmt"
	"strings"

	"studyquiz/internal/domain"
)

const (
	systemPromptGeneral = "You are an expert teacher who creates engaging, thought-provoking questions that promote deep learning."
	systemPromptEnglish = "You are an expert English teacher who creates engaging, well-structured questions for English language learners."
)

// isEnglishSubject reports whether the subject is the English language itself.
func isEnglishSubject(subject string) bool {
	s := strings.TrimSpace(subject)
	return strings.EqualFold(s, "english") || s == "אנגלית"
}

func systemPrompt(subject string) string {
	if isEnglishSubject(subject) {
		return systemPromptEnglish
	}
	return systemPromptGeneral
}

func typeInstructions(types []domain.QuestionType) string {
	var b strings.Builder
	for _, t := range types {
		switch t {
		case domain.MultipleChoice:
			b.WriteString(`- "multiple_choice": exactly 4 options, "correctAnswer" is the 0-3 index of the correct option` + "\n")
		case domain.TrueFalse:
			b.WriteString(`- "true_false": options ["True", "False"], "correctAnswer" is 0 for True or 1 for False` + "\n")
		case domain.FillInBlank:
			b.WriteString(`- "fill_in_blank": the question contains "___", options is [], "correctAnswer" is the missing word or phrase as a string` + "\n")
		}
	}
	return b.String()
}

func userPrompt(subject, gradeLevel, materials string, count int, types []domain.QuestionType) string {
	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}

	var intro, focus string
	if isEnglishSubject(subject) {
		intro = fmt.Sprintf("Generate %d English language learning questions for %s grade students.", count, gradeLevel)
		focus = "Test English vocabulary, grammar, and comprehension. Use English for all text (questions, answers, and explanations)."
	} else {
		intro = fmt.Sprintf("Generate %d challenging questions about %s for %s students.", count, subject, gradeLevel)
		focus = "Test deep understanding and critical thinking about the materials. Write in the language of the study materials."
	}

	return fmt.Sprintf(`%s
Study materials: %s

%s
Each question has one correct answer; wrong options must be plausible.
Difficulty must fit %s. Include a brief explanation for the correct answer.

Allowed question types (%s):
%s
Format response as a strict JSON object:
{
  "questions": [
    {
      "type": "multiple_choice",
      "question": "Question text here",
      "options": ["First option", "Second option", "Third option", "Fourth option"],
      "correctAnswer": 0,
      "explanation": "Brief explanation of why this is the correct answer"
    }
  ]
}

Important guidelines:
- Generate %d questions
- Make questions progressively more challenging
- Cover different aspects of the material
- Return JSON only, with no commentary`,
		intro, materials, focus, gradeLevel,
		strings.Join(typeNames, ", "), typeInstructions(types), count)
}
