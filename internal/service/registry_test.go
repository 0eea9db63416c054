package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocare-patient-server/internal/domain"
)

func validInput() *domain.PatientInput {
	return &domain.PatientInput{
		FullName:       "John Smith",
		Age:            72,
		Gender:         domain.MALE,
		Phone:          "9876543210",
		Address:        "12 Elm Street",
		RelativeName:   "Mary Smith",
		RelativeNumber: "9123456780",
		MedicalHistory: "Hypertension",
	}
}

func newTestPatientService(store *fakeStore, events domain.EventPublisher) *PatientService {
	return NewPatientService(store, newFakeAllocator(), newTestLookup(store), nil, nil, events, testLogger())
}

func TestPatientRegister(t *testing.T) {
	store := newFakeStore()
	events := &recordingPublisher{}
	svc := newTestPatientService(store, events)
	ctx := context.Background()

	patient, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, "PID100-johnsmith", patient.PatientID)
	assert.Equal(t, "John Smith", patient.FullName)
	assert.False(t, patient.RegistrationDate.IsZero())

	// Sequence advances on the next registration
	second := validInput()
	second.FullName = "Jane Doe"
	second.Phone = "9123456781"
	next, err := svc.Register(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "PID101-janedoe", next.PatientID)

	published := events.all()
	require.Len(t, published, 2)
	assert.Equal(t, domain.EventPatientCreated, published[0].Type)
	assert.Equal(t, "PID100-johnsmith", published[0].PatientID)
}

func TestPatientRegisterValidation(t *testing.T) {
	svc := newTestPatientService(newFakeStore(), nil)
	ctx := context.Background()

	input := validInput()
	input.FullName = ""
	input.Phone = "0123456789"

	_, err := svc.Register(ctx, input)
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.Fields(), "fullName")
	assert.Contains(t, verrs.Fields(), "phone")
}

func TestPatientRegisterAllocatorFailure(t *testing.T) {
	store := newFakeStore()
	allocator := newFakeAllocator()
	allocator.err = domain.ErrPersistence
	svc := NewPatientService(store, allocator, newTestLookup(store), nil, nil, nil, testLogger())

	_, err := svc.Register(context.Background(), validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	// Nothing persisted when allocation fails
	assert.Empty(t, store.patients)
}

func TestPatientUpdateKeepsID(t *testing.T) {
	store := newFakeStore()
	svc := newTestPatientService(store, nil)
	ctx := context.Background()

	patient, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	update := validInput()
	update.FullName = "Johnathan Smith"
	update.Age = 73

	updated, err := svc.Update(ctx, patient.PatientID, update)
	require.NoError(t, err)
	assert.Equal(t, patient.PatientID, updated.PatientID, "ID must not change with the name")
	assert.Equal(t, "Johnathan Smith", updated.FullName)
	assert.Equal(t, patient.RegistrationDate, updated.RegistrationDate)

	// The lookup cache serves the updated record
	got, err := svc.Get(ctx, patient.PatientID)
	require.NoError(t, err)
	assert.Equal(t, "Johnathan Smith", got.FullName)
}

func TestPatientUpdateNotFound(t *testing.T) {
	svc := newTestPatientService(newFakeStore(), nil)

	_, err := svc.Update(context.Background(), "PID999-missing", validInput())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatientDelete(t *testing.T) {
	store := newFakeStore()
	events := &recordingPublisher{}
	svc := newTestPatientService(store, events)
	ctx := context.Background()

	patient, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, patient.PatientID))

	_, err = svc.Get(ctx, patient.PatientID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Second delete reports not found
	assert.ErrorIs(t, svc.Delete(ctx, patient.PatientID), domain.ErrNotFound)

	// Sequence is never reused after deletion
	replacement, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "PID101-johnsmith", replacement.PatientID)
}

func TestPatientValidate(t *testing.T) {
	store := newFakeStore()
	svc := newTestPatientService(store, nil)
	ctx := context.Background()

	patient, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	identity, err := svc.Validate(ctx, patient.PatientID)
	require.NoError(t, err)
	assert.Equal(t, patient.PatientID, identity.PatientID)
	assert.Equal(t, "John Smith", identity.FullName)

	_, err = svc.Validate(ctx, "PID999-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatientSearchEmptyQuery(t *testing.T) {
	store := newFakeStore()
	svc := newTestPatientService(store, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	results, err := svc.Search(ctx, domain.PatientQuery{})
	require.NoError(t, err)
	assert.Empty(t, results, "empty query must match nothing")

	results, err = svc.Search(ctx, domain.PatientQuery{Phone: "9876543210"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "John Smith", results[0].FullName)
}

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorFromContext(ctx))
	assert.Equal(t, "admin", ActorFromContext(WithActor(ctx, "admin")))
}
