package service

import (
	"regexp"
	"strings"

	"github.com/neurocare-patient-server/internal/domain"
)

// phonePattern accepts exactly ten digits with no leading zero
var phonePattern = regexp.MustCompile(`^[1-9]\d{9}$`)

const maxPatientAge = 130

// ValidatePatientInput checks every caller-supplied patient field and
// aggregates all failures so the client can fix a submission in one pass.
func ValidatePatientInput(input *domain.PatientInput) error {
	var errs domain.ValidationErrors

	if strings.TrimSpace(input.FullName) == "" {
		errs = append(errs, domain.NewValidationError("fullName", "is required", nil))
	}
	if input.Age <= 0 || input.Age > maxPatientAge {
		errs = append(errs, domain.NewValidationError("age", "must be a positive age", input.Age))
	}
	if !input.Gender.Valid() {
		errs = append(errs, domain.NewValidationError("gender", "must be Male, Female or Other", string(input.Gender)))
	}
	if !phonePattern.MatchString(input.Phone) {
		errs = append(errs, domain.NewValidationError("phone", "must be a valid 10 digit phone number", input.Phone))
	}
	if strings.TrimSpace(input.Address) == "" {
		errs = append(errs, domain.NewValidationError("address", "is required", nil))
	}
	if strings.TrimSpace(input.RelativeName) == "" {
		errs = append(errs, domain.NewValidationError("relativeName", "is required", nil))
	}
	if !phonePattern.MatchString(input.RelativeNumber) {
		errs = append(errs, domain.NewValidationError("relativeNumber", "must be a valid 10 digit phone number", input.RelativeNumber))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// mmseBounds gives the inclusive upper bound of each MMSE sub-domain
var mmseBounds = []struct {
	field string
	max   int
	value func(domain.MMSEScores) int
}{
	{"orientation", 10, func(s domain.MMSEScores) int { return s.Orientation }},
	{"memory", 3, func(s domain.MMSEScores) int { return s.Memory }},
	{"attention", 5, func(s domain.MMSEScores) int { return s.Attention }},
	{"recall", 3, func(s domain.MMSEScores) int { return s.Recall }},
	{"language", 8, func(s domain.MMSEScores) int { return s.Language }},
	{"visual", 1, func(s domain.MMSEScores) int { return s.Visual }},
}

// ValidateMMSEScores checks that every sub-score lies inside its
// sub-domain range. Scoring assumes complete, validated input; this is
// the gate in front of it.
func ValidateMMSEScores(scores domain.MMSEScores) error {
	var errs domain.ValidationErrors

	for _, b := range mmseBounds {
		v := b.value(scores)
		if v < 0 || v > b.max {
			errs = append(errs, domain.NewValidationError(b.field, "is out of range", v))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// booleanIndicators lists every 0/1 screening field for shape validation
var booleanIndicators = []struct {
	field string
	value func(domain.ScreeningIndicators) int
}{
	{"familyHistoryAlzheimers", func(in domain.ScreeningIndicators) int { return in.FamilyHistoryAlzheimers }},
	{"cardiovascularDisease", func(in domain.ScreeningIndicators) int { return in.CardiovascularDisease }},
	{"diabetes", func(in domain.ScreeningIndicators) int { return in.Diabetes }},
	{"depression", func(in domain.ScreeningIndicators) int { return in.Depression }},
	{"headInjury", func(in domain.ScreeningIndicators) int { return in.HeadInjury }},
	{"hypertension", func(in domain.ScreeningIndicators) int { return in.Hypertension }},
	{"memoryComplaints", func(in domain.ScreeningIndicators) int { return in.MemoryComplaints }},
	{"behavioralProblems", func(in domain.ScreeningIndicators) int { return in.BehavioralProblems }},
	{"confusion", func(in domain.ScreeningIndicators) int { return in.Confusion }},
	{"disorientation", func(in domain.ScreeningIndicators) int { return in.Disorientation }},
	{"personalityChanges", func(in domain.ScreeningIndicators) int { return in.PersonalityChanges }},
	{"difficultyCompletingTasks", func(in domain.ScreeningIndicators) int { return in.DifficultyCompletingTasks }},
	{"forgetfulness", func(in domain.ScreeningIndicators) int { return in.Forgetfulness }},
}

// ValidateScreeningIndicators checks the ordinal ranges and that every
// boolean indicator is exactly 0 or 1.
func ValidateScreeningIndicators(indicators domain.ScreeningIndicators) error {
	var errs domain.ValidationErrors

	if indicators.MMSE < 0 || indicators.MMSE > 30 {
		errs = append(errs, domain.NewValidationError("mmse", "must be between 0 and 30", indicators.MMSE))
	}
	if indicators.FunctionalAssessment < 0 || indicators.FunctionalAssessment > 10 {
		errs = append(errs, domain.NewValidationError("functionalAssessment", "must be between 0 and 10", indicators.FunctionalAssessment))
	}
	if indicators.ADL < 0 || indicators.ADL > 10 {
		errs = append(errs, domain.NewValidationError("adl", "must be between 0 and 10", indicators.ADL))
	}

	for _, b := range booleanIndicators {
		if v := b.value(indicators); v != 0 && v != 1 {
			errs = append(errs, domain.NewValidationError(b.field, "must be 0 or 1", v))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
