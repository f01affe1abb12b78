package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"studyquiz/internal/domain"
)

const (
	MinMaterialsLength = 10
	MaxMaterialsLength = 20000

	MsgSubjectRequired    = "Subject is required"
	MsgGradeLevelRequired = "Grade level is required"
	MsgMaterialsTooShort  = "Please provide more context about study materials"
	MsgMaterialsTooLong   = "Study materials are too long"
	MsgInvalidStudyMode   = "Invalid study mode"
	MsgInvalidTimeSpent   = "Invalid time spent"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateStudyForm checks fields in form order so First() names the first violated field.
// It returns the normalized form when there are no errors.
func (v *Validator) ValidateStudyForm(subject, gradeLevel, materials, studyMode string) (domain.StudyForm, domain.ValidationErrors) {
	var errs domain.ValidationErrors

	subject = strings.TrimSpace(subject)
	gradeLevel = strings.TrimSpace(gradeLevel)
	materials = strings.TrimSpace(materials)

	if subject == "" {
		errs = append(errs, domain.NewFieldError("subject", MsgSubjectRequired))
	}
	if gradeLevel == "" {
		errs = append(errs, domain.NewFieldError("gradeLevel", MsgGradeLevelRequired))
	}
	switch n := utf8.RuneCountInString(materials); {
	case n < MinMaterialsLength:
		errs = append(errs, domain.NewFieldError("materials", MsgMaterialsTooShort))
	case n > MaxMaterialsLength:
		errs = append(errs, domain.NewFieldError("materials", MsgMaterialsTooLong))
	}
	mode, ok := domain.ParseStudyMode(studyMode)
	if !ok {
		errs = append(errs, domain.NewFieldError("studyMode", MsgInvalidStudyMode))
	}

	if len(errs) > 0 {
		return domain.StudyForm{}, errs
	}
	return domain.StudyForm{
		Subject:    subject,
		GradeLevel: gradeLevel,
		Materials:  materials,
		StudyMode:  mode,
	}, nil
}

// ValidateScore rounds a finite score in [0,100] to an integer.
func (v *Validator) ValidateScore(score float64) (int, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < domain.MinScore || score > domain.MaxScore {
		return 0, domain.NewInvalidScoreError()
	}
	return int(math.Round(score)), nil
}

// ValidateTimeSpent accepts a missing value or a non-negative number of seconds.
func (v *Validator) ValidateTimeSpent(seconds *int) error {
	if seconds != nil && *seconds < 0 {
		return domain.NewFieldError("timeSpent", MsgInvalidTimeSpent)
	}
	return nil
}
