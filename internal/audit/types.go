// Package audit provides durable audit trail storage for the patient
// registry. Every mutating operation records who did what to which
// patient so the trail can be reviewed after the fact.
package audit

import (
	"context"
	"io"
	"time"
)

// Action identifies the kind of operation being audited.
type Action string

const (
	ActionPatientCreated    Action = "PATIENT_CREATED"
	ActionPatientUpdated    Action = "PATIENT_UPDATED"
	ActionPatientDeleted    Action = "PATIENT_DELETED"
	ActionAssessmentCreated Action = "ASSESSMENT_CREATED"
	ActionScreeningCreated  Action = "SCREENING_CREATED"
	ActionScanCreated       Action = "SCAN_CREATED"
	ActionReportGenerated   Action = "REPORT_GENERATED"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        int64     `json:"id,omitempty"`
	Actor     string    `json:"actor"`     // role or identity of the caller
	Action    Action    `json:"action"`    // what happened
	PatientID string    `json:"patientId"` // subject of the operation
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the interface for audit trail storage.
type Store interface {
	// Record appends an audit entry. The entry's ID and CreatedAt are
	// populated on success.
	Record(ctx context.Context, entry *Entry) error

	// ListByPatient returns the most recent entries for a patient,
	// newest first.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*Entry, error)

	// List returns audit entries across all patients with pagination,
	// newest first.
	List(ctx context.Context, limit, offset int) ([]*Entry, error)

	// Count returns the total number of audit entries.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes all entries to the writer as a JSON array.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close releases the underlying database resources.
	Close() error
}
