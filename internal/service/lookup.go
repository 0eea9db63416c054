package service

import (
	"context"
	"errors"

	"github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// PatientLookup is an in-memory LRU read-through cache over patient
// records. Dependent-record creation hits it once per request to verify
// the referenced patient exists, so the hot set stays small.
type PatientLookup struct {
	store  domain.RecordStore
	memory *lru.Cache
	logger *logrus.Logger
}

// DefaultLookupCacheSize bounds the in-memory patient cache.
const DefaultLookupCacheSize = 512

// NewPatientLookup creates a patient lookup with an LRU cache of the
// given size. A size <= 0 falls back to DefaultLookupCacheSize.
func NewPatientLookup(store domain.RecordStore, size int, logger *logrus.Logger) (*PatientLookup, error) {
	if size <= 0 {
		size = DefaultLookupCacheSize
	}
	memory, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &PatientLookup{
		store:  store,
		memory: memory,
		logger: logger,
	}, nil
}

// Get returns the patient by ID, consulting the cache first. Missing
// patients return domain.ErrNotFound and are never cached negatively, so
// a patient registered elsewhere becomes visible immediately.
func (l *PatientLookup) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	if cached, ok := l.memory.Get(patientID); ok {
		if patient, ok := cached.(*domain.Patient); ok {
			return patient, nil
		}
		l.memory.Remove(patientID)
	}

	patient, err := l.store.FindPatientByID(ctx, patientID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			l.logger.WithError(err).WithField("patient_id", patientID).
				Warn("Patient lookup failed")
		}
		return nil, err
	}

	l.memory.Add(patientID, patient)
	return patient, nil
}

// Put caches a patient record, replacing any stale entry.
func (l *PatientLookup) Put(patient *domain.Patient) {
	if patient != nil {
		l.memory.Add(patient.PatientID, patient)
	}
}

// Invalidate drops a patient from the cache after an update or delete.
func (l *PatientLookup) Invalidate(patientID string) {
	l.memory.Remove(patientID)
}

// Len reports the number of cached patients.
func (l *PatientLookup) Len() int {
	return l.memory.Len()
}
