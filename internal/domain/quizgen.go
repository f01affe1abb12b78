package domain

import "context"

// Provenance tells whether questions came from the model or from fallback synthesis.
type Provenance string

const (
	ProvenanceGenerated Provenance = "generated"
	ProvenanceFallback  Provenance = "fallback"
)

// GenerationResult is never empty. Cause is set only for fallback results.
type GenerationResult struct {
	Questions  []Question
	Provenance Provenance
	Cause      error
}

func (r GenerationResult) IsFallback() bool {
	return r.Provenance == ProvenanceFallback
}

// QuestionGenerator produces quiz questions for a study form. It never fails
// outward: upstream failures are absorbed into a fallback result.
type QuestionGenerator interface {
	Generate(ctx context.Context, subject, gradeLevel, materials string) GenerationResult
}

// TextCompleter sends one system + user prompt pair to a language model and
// returns the raw text of its reply, requesting JSON output.
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
