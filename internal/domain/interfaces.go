package domain

import (
	"context"
)

// RecordStore is the persistence contract required by the core: four
// independent record collections (Counter via SequenceAllocator, Patient,
// Assessment/Screening, Scan), with dependent records linked to their
// patient only by the string patientId, never by embedding.
type RecordStore interface {
	CreatePatient(ctx context.Context, patient *Patient) error
	FindPatientByID(ctx context.Context, patientID string) (*Patient, error)
	FindPatientsByQuery(ctx context.Context, query PatientQuery) ([]Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	UpdatePatient(ctx context.Context, patient *Patient) error
	// DeletePatient removes the patient and every dependent assessment,
	// screening and scan in one transaction.
	DeletePatient(ctx context.Context, patientID string) error

	CreateAssessment(ctx context.Context, assessment *Assessment) error
	ListAssessmentsByPatient(ctx context.Context, patientID string) ([]Assessment, error)

	CreateScreening(ctx context.Context, screening *Screening) error
	ListScreeningsByPatient(ctx context.Context, patientID string) ([]Screening, error)

	CreateScan(ctx context.Context, scan *Scan) error
	ListScansByPatient(ctx context.Context, patientID string) ([]Scan, error)
}

// SequenceAllocator hands out strictly increasing integers per counter
// name. The increment-and-read is a single atomic store operation; a first
// allocation for a never-seen name returns CounterBase. Implementations
// must never fabricate a value on store failure.
type SequenceAllocator interface {
	Allocate(ctx context.Context, counterName string) (int64, error)
}

// Classifier produces a dementia class prediction for an MRI image. The
// bundled implementation is a simulator; a real model can be substituted
// without touching the core.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (*Prediction, error)
}

// EventPublisher fans record-change events out to dashboard subscribers.
// Publishing is fire-and-forget; slow subscribers never block a request.
type EventPublisher interface {
	Publish(event Event)
}

// Session is the authentication capability injected into request handlers.
// It replaces ambient global auth state: handlers consult the session
// explicitly to authorize each operation.
type Session interface {
	// Role names the session kind ("admin" or "patient")
	Role() string
	// CanAccessPatient reports whether the session may read or write
	// records belonging to the given patient
	CanAccessPatient(patientID string) bool
	// CanManagePatients reports whether the session may register, update
	// or delete patients and list the full registry
	CanManagePatients() bool
}

// AdminSession has full access to every record
type AdminSession struct{}

func (AdminSession) Role() string                 { return "admin" }
func (AdminSession) CanAccessPatient(string) bool { return true }
func (AdminSession) CanManagePatients() bool      { return true }

// PatientSession is scoped to a single patient's own records
type PatientSession struct {
	PatientID string
}

func (s PatientSession) Role() string { return "patient" }

func (s PatientSession) CanAccessPatient(patientID string) bool {
	return s.PatientID == patientID
}

func (PatientSession) CanManagePatients() bool { return false }
