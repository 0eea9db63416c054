package service

import (
	"github.com/neurocare-patient-server/internal/domain"
)

// Risk scoring engine: two pure, deterministic scoring functions over
// already-validated input. Callers reject incomplete submissions before
// scoring; neither function has an error path.

// MMSE risk thresholds, evaluated high to low, first match wins
const (
	mmseLowRiskMin    = 24
	mmseMediumRiskMin = 18
)

// ScoreMMSE sums the six sub-scores and maps the total to the three-tier
// risk label: >=24 Low, 18-23 Medium, <18 High.
func ScoreMMSE(scores domain.MMSEScores) (int, domain.RiskLevel) {
	total := scores.Sum()
	switch {
	case total >= mmseLowRiskMin:
		return total, domain.LOW_RISK
	case total >= mmseMediumRiskMin:
		return total, domain.MEDIUM_RISK
	default:
		return total, domain.HIGH_RISK
	}
}

// diagnosisThreshold is the riskScore at which a screening flips to a
// high-risk diagnosis
const diagnosisThreshold = 6

// riskFactorRule is one weighted screening criterion. Rules are evaluated
// independently in declaration order; every rule that fires contributes
// its weight and its label.
type riskFactorRule struct {
	Label  string
	Weight int
	Fires  func(domain.ScreeningIndicators) bool
}

// riskFactorRules holds every screening criterion in evaluation order.
// Hypertension is collected with the indicator set but carries no weight.
var riskFactorRules = []riskFactorRule{
	{
		Label:  "MMSE score below 24",
		Weight: 3,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.MMSE < 24 },
	},
	{
		Label:  "Functional assessment below 6",
		Weight: 2,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.FunctionalAssessment < 6 },
	},
	{
		Label:  "Impaired activities of daily living",
		Weight: 2,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.ADL < 6 },
	},
	{
		Label:  "Family history of Alzheimer's",
		Weight: 2,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.FamilyHistoryAlzheimers == 1 },
	},
	{
		Label:  "Cardiovascular disease",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.CardiovascularDisease == 1 },
	},
	{
		Label:  "Diabetes",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.Diabetes == 1 },
	},
	{
		Label:  "Depression",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.Depression == 1 },
	},
	{
		Label:  "History of head injury",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.HeadInjury == 1 },
	},
	{
		Label:  "Memory complaints",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.MemoryComplaints == 1 },
	},
	{
		Label:  "Confusion",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.Confusion == 1 },
	},
	{
		Label:  "Disorientation",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.Disorientation == 1 },
	},
	{
		Label:  "Forgetfulness",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.Forgetfulness == 1 },
	},
	{
		Label:  "Difficulty completing tasks",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.DifficultyCompletingTasks == 1 },
	},
	{
		Label:  "Personality changes",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.PersonalityChanges == 1 },
	},
	{
		Label:  "Behavioral problems",
		Weight: 1,
		Fires:  func(in domain.ScreeningIndicators) bool { return in.BehavioralProblems == 1 },
	},
}

// ScoreScreening evaluates every risk-factor rule against the indicator
// set, sums the weights of the rules that fired, and flags a high-risk
// diagnosis at riskScore >= 6. The returned labels preserve evaluation
// order for display.
func ScoreScreening(indicators domain.ScreeningIndicators) (int, domain.Diagnosis, []string) {
	riskScore := 0
	factors := []string{}

	for _, rule := range riskFactorRules {
		if rule.Fires(indicators) {
			riskScore += rule.Weight
			factors = append(factors, rule.Label)
		}
	}

	diagnosis := domain.LOW_RISK_DIAGNOSIS
	if riskScore >= diagnosisThreshold {
		diagnosis = domain.HIGH_RISK_DIAGNOSIS
	}

	return riskScore, diagnosis, factors
}
