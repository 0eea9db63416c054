package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurocare-patient-server/internal/domain"
)

func TestScoreMMSE(t *testing.T) {
	tests := []struct {
		name      string
		scores    domain.MMSEScores
		wantTotal int
		wantRisk  domain.RiskLevel
	}{
		{
			name:      "Perfect score is low risk",
			scores:    domain.MMSEScores{Orientation: 10, Memory: 3, Attention: 5, Recall: 3, Language: 8, Visual: 1},
			wantTotal: 30,
			wantRisk:  domain.LOW_RISK,
		},
		{
			name:      "Boundary 24 is low risk",
			scores:    domain.MMSEScores{Orientation: 10, Memory: 3, Attention: 5, Recall: 3, Language: 3, Visual: 0},
			wantTotal: 24,
			wantRisk:  domain.LOW_RISK,
		},
		{
			name:      "Boundary 23 is medium risk",
			scores:    domain.MMSEScores{Orientation: 8, Memory: 2, Attention: 4, Recall: 2, Language: 6, Visual: 1},
			wantTotal: 23,
			wantRisk:  domain.MEDIUM_RISK,
		},
		{
			name:      "Boundary 18 is medium risk",
			scores:    domain.MMSEScores{Orientation: 6, Memory: 2, Attention: 3, Recall: 2, Language: 4, Visual: 1},
			wantTotal: 18,
			wantRisk:  domain.MEDIUM_RISK,
		},
		{
			name:      "Boundary 17 is high risk",
			scores:    domain.MMSEScores{Orientation: 6, Memory: 2, Attention: 3, Recall: 2, Language: 4, Visual: 0},
			wantTotal: 17,
			wantRisk:  domain.HIGH_RISK,
		},
		{
			name:      "Zero is high risk",
			scores:    domain.MMSEScores{},
			wantTotal: 0,
			wantRisk:  domain.HIGH_RISK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, risk := ScoreMMSE(tt.scores)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantRisk, risk)
		})
	}
}

func TestScoreMMSEDeterministic(t *testing.T) {
	scores := domain.MMSEScores{Orientation: 8, Memory: 2, Attention: 4, Recall: 2, Language: 6, Visual: 1}
	t1, r1 := ScoreMMSE(scores)
	t2, r2 := ScoreMMSE(scores)
	assert.Equal(t, t1, t2)
	assert.Equal(t, r1, r2)
}

func TestScoreScreening(t *testing.T) {
	// Healthy baseline: ordinals above every threshold, no indicators set
	healthy := domain.ScreeningIndicators{MMSE: 28, FunctionalAssessment: 9, ADL: 9}

	tests := []struct {
		name          string
		indicators    domain.ScreeningIndicators
		wantScore     int
		wantDiagnosis domain.Diagnosis
		wantFactors   []string
	}{
		{
			name:          "No factors fire",
			indicators:    healthy,
			wantScore:     0,
			wantDiagnosis: domain.LOW_RISK_DIAGNOSIS,
			wantFactors:   []string{},
		},
		{
			name: "Weighted end-to-end scenario scores 7",
			indicators: domain.ScreeningIndicators{
				MMSE: 20, FunctionalAssessment: 5, ADL: 9, FamilyHistoryAlzheimers: 1,
			},
			wantScore:     7,
			wantDiagnosis: domain.HIGH_RISK_DIAGNOSIS,
			wantFactors: []string{
				"MMSE score below 24",
				"Functional assessment below 6",
				"Family history of Alzheimer's",
			},
		},
		{
			name: "Boundary 5 is low risk",
			indicators: domain.ScreeningIndicators{
				MMSE: 20, FunctionalAssessment: 9, ADL: 5,
			},
			wantScore:     5,
			wantDiagnosis: domain.LOW_RISK_DIAGNOSIS,
			wantFactors: []string{
				"MMSE score below 24",
				"Impaired activities of daily living",
			},
		},
		{
			name: "Boundary 6 is high risk",
			indicators: domain.ScreeningIndicators{
				MMSE: 20, FunctionalAssessment: 9, ADL: 5, Diabetes: 1,
			},
			wantScore:     6,
			wantDiagnosis: domain.HIGH_RISK_DIAGNOSIS,
			wantFactors: []string{
				"MMSE score below 24",
				"Impaired activities of daily living",
				"Diabetes",
			},
		},
		{
			name: "Hypertension carries no weight",
			indicators: func() domain.ScreeningIndicators {
				in := healthy
				in.Hypertension = 1
				return in
			}(),
			wantScore:     0,
			wantDiagnosis: domain.LOW_RISK_DIAGNOSIS,
			wantFactors:   []string{},
		},
		{
			name: "Every single-point indicator fires",
			indicators: domain.ScreeningIndicators{
				MMSE: 28, FunctionalAssessment: 9, ADL: 9,
				CardiovascularDisease: 1, Diabetes: 1, Depression: 1, HeadInjury: 1,
				MemoryComplaints: 1, Confusion: 1, Disorientation: 1, Forgetfulness: 1,
				DifficultyCompletingTasks: 1, PersonalityChanges: 1, BehavioralProblems: 1,
			},
			wantScore:     11,
			wantDiagnosis: domain.HIGH_RISK_DIAGNOSIS,
			wantFactors: []string{
				"Cardiovascular disease",
				"Diabetes",
				"Depression",
				"History of head injury",
				"Memory complaints",
				"Confusion",
				"Disorientation",
				"Forgetfulness",
				"Difficulty completing tasks",
				"Personality changes",
				"Behavioral problems",
			},
		},
		{
			name: "Everything fires at once",
			indicators: domain.ScreeningIndicators{
				MMSE: 0, FunctionalAssessment: 0, ADL: 0,
				FamilyHistoryAlzheimers: 1, CardiovascularDisease: 1, Diabetes: 1,
				Depression: 1, HeadInjury: 1, Hypertension: 1, MemoryComplaints: 1,
				BehavioralProblems: 1, Confusion: 1, Disorientation: 1,
				PersonalityChanges: 1, DifficultyCompletingTasks: 1, Forgetfulness: 1,
			},
			wantScore:     20,
			wantDiagnosis: domain.HIGH_RISK_DIAGNOSIS,
			wantFactors: []string{
				"MMSE score below 24",
				"Functional assessment below 6",
				"Impaired activities of daily living",
				"Family history of Alzheimer's",
				"Cardiovascular disease",
				"Diabetes",
				"Depression",
				"History of head injury",
				"Memory complaints",
				"Confusion",
				"Disorientation",
				"Forgetfulness",
				"Difficulty completing tasks",
				"Personality changes",
				"Behavioral problems",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, diagnosis, factors := ScoreScreening(tt.indicators)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantDiagnosis, diagnosis)
			assert.Equal(t, tt.wantFactors, factors)
		})
	}
}

func TestScoreScreeningMatchesWeightSum(t *testing.T) {
	// riskScore must always equal the sum of the fired rule weights
	inputs := []domain.ScreeningIndicators{
		{MMSE: 23, FunctionalAssessment: 6, ADL: 6},
		{MMSE: 30, FunctionalAssessment: 5, ADL: 5, Depression: 1},
		{MMSE: 10, FunctionalAssessment: 2, ADL: 1, Forgetfulness: 1, Confusion: 1},
	}

	for _, in := range inputs {
		score, _, factors := ScoreScreening(in)
		sum := 0
		for _, rule := range riskFactorRules {
			if rule.Fires(in) {
				sum += rule.Weight
			}
		}
		assert.Equal(t, sum, score)
		assert.LessOrEqual(t, len(factors), len(riskFactorRules))
	}
}
