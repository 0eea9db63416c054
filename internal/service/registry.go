// Package service implements the clinical core of the patient registry:
// registration with sequential ID allocation, MMSE and risk-factor
// scoring, MRI scan intake and composite report assembly.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/domain"
)

// actorKey carries the authenticated caller identity through the context
// for audit trail attribution.
type actorKey struct{}

// WithActor returns a context carrying the caller identity for auditing.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the caller identity, or "system" when the
// request carries none.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// nopPublisher drops events when no subscriber hub is wired.
type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}

// PatientIdentity is the minimal projection returned by patient ID
// validation: enough for a portal to greet the patient, nothing more.
type PatientIdentity struct {
	PatientID string `json:"patientId"`
	FullName  string `json:"fullName"`
}

// PatientService implements patient registration and lifecycle. Patient
// IDs are allocated from the persistent counter and never reused, even
// after deletion.
type PatientService struct {
	store     domain.RecordStore
	allocator domain.SequenceAllocator
	lookup    *PatientLookup
	reports   cache.ReportCache
	audit     audit.Store
	events    domain.EventPublisher
	logger    *logrus.Logger
}

// NewPatientService creates the patient service. Nil audit, cache and
// event collaborators are replaced with no-ops.
func NewPatientService(
	store domain.RecordStore,
	allocator domain.SequenceAllocator,
	lookup *PatientLookup,
	reports cache.ReportCache,
	auditStore audit.Store,
	events domain.EventPublisher,
	logger *logrus.Logger,
) *PatientService {
	if reports == nil {
		reports = cache.NewNopReportCache()
	}
	if auditStore == nil {
		auditStore = audit.NewNopStore()
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &PatientService{
		store:     store,
		allocator: allocator,
		lookup:    lookup,
		reports:   reports,
		audit:     auditStore,
		events:    events,
		logger:    logger,
	}
}

// Register validates the input, allocates the next patient sequence and
// persists the new record. The first patient ever registered receives
// sequence 100.
func (s *PatientService) Register(ctx context.Context, input *domain.PatientInput) (*domain.Patient, error) {
	if err := ValidatePatientInput(input); err != nil {
		return nil, err
	}

	sequence, err := s.allocator.Allocate(ctx, domain.PatientIDCounter)
	if err != nil {
		return nil, fmt.Errorf("allocating patient sequence: %w", err)
	}

	patient := &domain.Patient{
		PatientID:        domain.FormatPatientID(sequence, input.FullName),
		FullName:         input.FullName,
		Age:              input.Age,
		Gender:           input.Gender,
		Phone:            input.Phone,
		Address:          input.Address,
		RelativeName:     input.RelativeName,
		RelativeNumber:   input.RelativeNumber,
		MedicalHistory:   input.MedicalHistory,
		RegistrationDate: time.Now().UTC(),
	}

	if err := s.store.CreatePatient(ctx, patient); err != nil {
		return nil, err
	}

	s.lookup.Put(patient)
	s.recordAudit(ctx, audit.ActionPatientCreated, patient.PatientID, "")
	s.publish(domain.EventPatientCreated, patient.PatientID, "")

	s.logger.WithFields(logrus.Fields{
		"patient_id": patient.PatientID,
		"sequence":   sequence,
	}).Info("Patient registered")

	return patient, nil
}

// Get returns a patient by ID.
func (s *PatientService) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	return s.lookup.Get(ctx, patientID)
}

// List returns every patient, newest registration first.
func (s *PatientService) List(ctx context.Context) ([]domain.Patient, error) {
	return s.store.ListPatients(ctx)
}

// Search returns patients matching the query. An empty query matches
// nothing rather than everything.
func (s *PatientService) Search(ctx context.Context, query domain.PatientQuery) ([]domain.Patient, error) {
	return s.store.FindPatientsByQuery(ctx, query)
}

// Validate confirms a patient ID exists and returns the identity used by
// the patient portal login.
func (s *PatientService) Validate(ctx context.Context, patientID string) (*PatientIdentity, error) {
	patient, err := s.lookup.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &PatientIdentity{
		PatientID: patient.PatientID,
		FullName:  patient.FullName,
	}, nil
}

// Update replaces the mutable fields of a patient. The patient ID and
// registration date never change, even when the name the ID was derived
// from does.
func (s *PatientService) Update(ctx context.Context, patientID string, input *domain.PatientInput) (*domain.Patient, error) {
	if err := ValidatePatientInput(input); err != nil {
		return nil, err
	}

	existing, err := s.store.FindPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	existing.FullName = input.FullName
	existing.Age = input.Age
	existing.Gender = input.Gender
	existing.Phone = input.Phone
	existing.Address = input.Address
	existing.RelativeName = input.RelativeName
	existing.RelativeNumber = input.RelativeNumber
	existing.MedicalHistory = input.MedicalHistory

	if err := s.store.UpdatePatient(ctx, existing); err != nil {
		return nil, err
	}

	s.lookup.Put(existing)
	s.invalidateReport(ctx, patientID)
	s.recordAudit(ctx, audit.ActionPatientUpdated, patientID, "")
	s.publish(domain.EventPatientUpdated, patientID, "")

	s.logger.WithField("patient_id", patientID).Info("Patient updated")

	return existing, nil
}

// Delete removes a patient together with every dependent assessment,
// screening and scan. The counter is never rolled back; the sequence
// stays burned.
func (s *PatientService) Delete(ctx context.Context, patientID string) error {
	if err := s.store.DeletePatient(ctx, patientID); err != nil {
		return err
	}

	s.lookup.Invalidate(patientID)
	s.invalidateReport(ctx, patientID)
	s.recordAudit(ctx, audit.ActionPatientDeleted, patientID, "dependent records removed")
	s.publish(domain.EventPatientDeleted, patientID, "")

	s.logger.WithField("patient_id", patientID).Info("Patient deleted")

	return nil
}

func (s *PatientService) invalidateReport(ctx context.Context, patientID string) {
	if err := s.reports.Invalidate(ctx, patientID); err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Failed to invalidate report cache")
	}
}

func (s *PatientService) recordAudit(ctx context.Context, action audit.Action, patientID, detail string) {
	recordAudit(ctx, s.audit, s.logger, action, patientID, detail)
}

func (s *PatientService) publish(eventType, patientID, detail string) {
	publishEvent(s.events, eventType, patientID, detail)
}

// recordAudit appends an audit entry, logging rather than failing the
// request when the trail store is unavailable.
func recordAudit(ctx context.Context, store audit.Store, logger *logrus.Logger, action audit.Action, patientID, detail string) {
	entry := &audit.Entry{
		Actor:     ActorFromContext(ctx),
		Action:    action,
		PatientID: patientID,
		Detail:    detail,
	}
	if err := store.Record(ctx, entry); err != nil {
		logger.WithError(err).WithField("action", action).
			Warn("Failed to record audit entry")
	}
}

func publishEvent(events domain.EventPublisher, eventType, patientID, detail string) {
	events.Publish(domain.Event{
		Type:      eventType,
		PatientID: patientID,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
