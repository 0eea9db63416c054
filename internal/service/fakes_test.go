package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// fakeStore is an in-memory RecordStore for service tests.
type fakeStore struct {
	mu          sync.Mutex
	patients    map[string]domain.Patient
	assessments map[string][]domain.Assessment
	screenings  map[string][]domain.Screening
	scans       map[string][]domain.Scan

	createPatientErr error
	findPatientErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		patients:    make(map[string]domain.Patient),
		assessments: make(map[string][]domain.Assessment),
		screenings:  make(map[string][]domain.Screening),
		scans:       make(map[string][]domain.Scan),
	}
}

func (f *fakeStore) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createPatientErr != nil {
		return f.createPatientErr
	}
	if _, exists := f.patients[patient.PatientID]; exists {
		return domain.ErrConflict
	}
	f.patients[patient.PatientID] = *patient
	return nil
}

func (f *fakeStore) FindPatientByID(ctx context.Context, patientID string) (*domain.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findPatientErr != nil {
		return nil, f.findPatientErr
	}
	p, ok := f.patients[patientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) FindPatientsByQuery(ctx context.Context, query domain.PatientQuery) ([]domain.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]domain.Patient, 0)
	if query == (domain.PatientQuery{}) {
		return matched, nil
	}
	for _, p := range f.patients {
		if query.PatientID != "" && p.PatientID != query.PatientID {
			continue
		}
		if query.FullName != "" && p.FullName != query.FullName {
			continue
		}
		if query.Phone != "" && p.Phone != query.Phone {
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

func (f *fakeStore) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]domain.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		all = append(all, p)
	}
	return all, nil
}

func (f *fakeStore) UpdatePatient(ctx context.Context, patient *domain.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patients[patient.PatientID]; !ok {
		return domain.ErrNotFound
	}
	f.patients[patient.PatientID] = *patient
	return nil
}

func (f *fakeStore) DeletePatient(ctx context.Context, patientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patients[patientID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.patients, patientID)
	delete(f.assessments, patientID)
	delete(f.screenings, patientID)
	delete(f.scans, patientID)
	return nil
}

func (f *fakeStore) CreateAssessment(ctx context.Context, assessment *domain.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Newest first, matching the repository ordering
	f.assessments[assessment.PatientID] = append(
		[]domain.Assessment{*assessment}, f.assessments[assessment.PatientID]...)
	return nil
}

func (f *fakeStore) ListAssessmentsByPatient(ctx context.Context, patientID string) ([]domain.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Assessment(nil), f.assessments[patientID]...), nil
}

func (f *fakeStore) CreateScreening(ctx context.Context, screening *domain.Screening) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenings[screening.PatientID] = append(
		[]domain.Screening{*screening}, f.screenings[screening.PatientID]...)
	return nil
}

func (f *fakeStore) ListScreeningsByPatient(ctx context.Context, patientID string) ([]domain.Screening, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Screening(nil), f.screenings[patientID]...), nil
}

func (f *fakeStore) CreateScan(ctx context.Context, scan *domain.Scan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans[scan.PatientID] = append([]domain.Scan{*scan}, f.scans[scan.PatientID]...)
	return nil
}

func (f *fakeStore) ListScansByPatient(ctx context.Context, patientID string) ([]domain.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Scan(nil), f.scans[patientID]...), nil
}

// fakeAllocator hands out sequences from memory.
type fakeAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{counters: make(map[string]int64)}
}

func (f *fakeAllocator) Allocate(ctx context.Context, counterName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.counters[counterName]; !ok {
		f.counters[counterName] = domain.CounterBase
	} else {
		f.counters[counterName]++
	}
	return f.counters[counterName], nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// fixedClassifier returns a canned prediction.
type fixedClassifier struct {
	prediction *domain.Prediction
	err        error
}

func (f *fixedClassifier) Classify(ctx context.Context, image []byte) (*domain.Prediction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prediction, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestLookup(store domain.RecordStore) *PatientLookup {
	lookup, err := NewPatientLookup(store, 16, testLogger())
	if err != nil {
		panic(err)
	}
	return lookup
}
