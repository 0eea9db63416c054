package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocare-patient-server/internal/domain"
)

func registerTestPatient(t *testing.T, store *fakeStore) *domain.Patient {
	t.Helper()
	svc := newTestPatientService(store, nil)
	patient, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	return patient
}

func TestAssessmentCreate(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	events := &recordingPublisher{}
	svc := NewAssessmentService(store, newTestLookup(store), nil, nil, events, testLogger())
	ctx := context.Background()

	scores := domain.MMSEScores{
		Orientation: 8, Memory: 3, Attention: 4, Recall: 2, Language: 7, Visual: 1,
	}

	assessment, err := svc.Create(ctx, patient.PatientID, scores)
	require.NoError(t, err)

	assert.NotEmpty(t, assessment.ID)
	assert.Equal(t, 25, assessment.TotalScore)
	assert.Equal(t, domain.LOW_RISK, assessment.RiskLevel)
	assert.False(t, assessment.AssessmentDate.IsZero())

	published := events.all()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventAssessmentCreated, published[0].Type)

	history, err := svc.ListByPatient(ctx, patient.PatientID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, assessment.ID, history[0].ID)
}

func TestAssessmentCreateUnknownPatient(t *testing.T) {
	store := newFakeStore()
	svc := NewAssessmentService(store, newTestLookup(store), nil, nil, nil, testLogger())

	scores := domain.MMSEScores{Orientation: 10, Memory: 3, Attention: 5, Recall: 3, Language: 8, Visual: 1}
	_, err := svc.Create(context.Background(), "PID999-missing", scores)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestAssessmentCreateOutOfRangeScores(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	svc := NewAssessmentService(store, newTestLookup(store), nil, nil, nil, testLogger())

	scores := domain.MMSEScores{Orientation: 11, Memory: -1, Attention: 5, Recall: 3, Language: 8, Visual: 1}
	_, err := svc.Create(context.Background(), patient.PatientID, scores)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	// Invalid input must be rejected before the reference check
	history, err := svc.ListByPatient(context.Background(), patient.PatientID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAssessmentListUnknownPatient(t *testing.T) {
	store := newFakeStore()
	svc := NewAssessmentService(store, newTestLookup(store), nil, nil, nil, testLogger())

	_, err := svc.ListByPatient(context.Background(), "PID999-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScreeningCreate(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	events := &recordingPublisher{}
	svc := NewScreeningService(store, newTestLookup(store), nil, nil, events, testLogger())
	ctx := context.Background()

	indicators := domain.ScreeningIndicators{
		MMSE:                    20, // below 24: +3
		FunctionalAssessment:    5,  // below 6: +2
		ADL:                     9,
		FamilyHistoryAlzheimers: 1, // +2
	}

	screening, err := svc.Create(ctx, patient.PatientID, indicators)
	require.NoError(t, err)

	assert.Equal(t, 7, screening.RiskScore)
	assert.Equal(t, domain.HIGH_RISK_DIAGNOSIS, screening.Diagnosis)
	assert.Len(t, screening.RiskFactors, 3)

	published := events.all()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventScreeningCreated, published[0].Type)
}

func TestScreeningCreateUnknownPatient(t *testing.T) {
	store := newFakeStore()
	svc := NewScreeningService(store, newTestLookup(store), nil, nil, nil, testLogger())

	indicators := domain.ScreeningIndicators{MMSE: 28, FunctionalAssessment: 8, ADL: 8}
	_, err := svc.Create(context.Background(), "PID999-missing", indicators)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestScreeningCreateInvalidIndicators(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	svc := NewScreeningService(store, newTestLookup(store), nil, nil, nil, testLogger())

	indicators := domain.ScreeningIndicators{MMSE: 31, FunctionalAssessment: 8, ADL: 8, Diabetes: 2}
	_, err := svc.Create(context.Background(), patient.PatientID, indicators)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte("fake mri image bytes"))
}

func TestScanCreateWithClassifier(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	classifier := &fixedClassifier{prediction: &domain.Prediction{
		PredictedClass: domain.VERY_MILD,
		Confidence:     87.5,
		ModelVersion:   domain.DefaultModelVersion,
	}}
	events := &recordingPublisher{}
	svc := NewScanService(store, newTestLookup(store), classifier, nil, nil, events, testLogger())
	ctx := context.Background()

	scan, err := svc.Create(ctx, patient.PatientID, testImage(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.VERY_MILD, scan.PredictedClass)
	assert.Equal(t, 87.5, scan.Confidence)
	assert.Equal(t, domain.DefaultModelVersion, scan.ModelVersion)
	assert.Equal(t, testImage(), scan.Image)

	published := events.all()
	require.Len(t, published, 1)
	assert.Equal(t, domain.EventScanCreated, published[0].Type)
}

func TestScanCreateWithSuppliedPrediction(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	svc := NewScanService(store, newTestLookup(store), &fixedClassifier{}, nil, nil, nil, testLogger())
	ctx := context.Background()

	scan, err := svc.Create(ctx, patient.PatientID, testImage(), &domain.Prediction{
		PredictedClass: domain.MODERATE,
		Confidence:     64.2,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MODERATE, scan.PredictedClass)
	assert.Equal(t, 64.2, scan.Confidence)
	assert.Equal(t, domain.DefaultModelVersion, scan.ModelVersion, "missing model version falls back to the default")
}

func TestScanCreateRejectsBadInput(t *testing.T) {
	store := newFakeStore()
	patient := registerTestPatient(t, store)
	svc := NewScanService(store, newTestLookup(store), &fixedClassifier{}, nil, nil, nil, testLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, patient.PatientID, "", nil)
	assert.True(t, domain.IsValidation(err), "empty image")

	_, err = svc.Create(ctx, patient.PatientID, "not base64!!", nil)
	assert.True(t, domain.IsValidation(err), "malformed base64")

	_, err = svc.Create(ctx, patient.PatientID, testImage(), &domain.Prediction{
		PredictedClass: "Severe Dementia",
		Confidence:     50,
	})
	assert.True(t, domain.IsValidation(err), "unknown class")

	_, err = svc.Create(ctx, patient.PatientID, testImage(), &domain.Prediction{
		PredictedClass: domain.MILD,
		Confidence:     120,
	})
	assert.True(t, domain.IsValidation(err), "confidence out of range")

	_, err = svc.Create(ctx, "PID999-missing", testImage(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}
