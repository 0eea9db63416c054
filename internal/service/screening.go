package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/domain"
)

// ScreeningService records weighted risk-factor screenings. The risk
// score, diagnosis and fired risk factors are computed here at creation
// time and stored denormalized.
type ScreeningService struct {
	store   domain.RecordStore
	lookup  *PatientLookup
	reports cache.ReportCache
	audit   audit.Store
	events  domain.EventPublisher
	logger  *logrus.Logger
}

// NewScreeningService creates the screening service. Nil audit, cache
// and event collaborators are replaced with no-ops.
func NewScreeningService(
	store domain.RecordStore,
	lookup *PatientLookup,
	reports cache.ReportCache,
	auditStore audit.Store,
	events domain.EventPublisher,
	logger *logrus.Logger,
) *ScreeningService {
	if reports == nil {
		reports = cache.NewNopReportCache()
	}
	if auditStore == nil {
		auditStore = audit.NewNopStore()
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &ScreeningService{
		store:   store,
		lookup:  lookup,
		reports: reports,
		audit:   auditStore,
		events:  events,
		logger:  logger,
	}
}

// Create validates the indicators, verifies the referenced patient
// exists, scores the screening and persists it.
func (s *ScreeningService) Create(ctx context.Context, patientID string, indicators domain.ScreeningIndicators) (*domain.Screening, error) {
	if err := ValidateScreeningIndicators(indicators); err != nil {
		return nil, err
	}

	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidReference
		}
		return nil, err
	}

	score, diagnosis, riskFactors := ScoreScreening(indicators)

	screening := &domain.Screening{
		ID:            uuid.New().String(),
		PatientID:     patientID,
		Indicators:    indicators,
		RiskScore:     score,
		Diagnosis:     diagnosis,
		RiskFactors:   riskFactors,
		ScreeningDate: time.Now().UTC(),
	}

	if err := s.store.CreateScreening(ctx, screening); err != nil {
		return nil, err
	}

	if err := s.reports.Invalidate(ctx, patientID); err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Failed to invalidate report cache")
	}
	recordAudit(ctx, s.audit, s.logger, audit.ActionScreeningCreated, patientID,
		fmt.Sprintf("risk score %d, %s", score, diagnosis.Label()))
	publishEvent(s.events, domain.EventScreeningCreated, patientID, diagnosis.Label())

	s.logger.WithFields(logrus.Fields{
		"patient_id": patientID,
		"risk_score": score,
		"diagnosis":  diagnosis.Label(),
	}).Info("Risk-factor screening recorded")

	return screening, nil
}

// ListByPatient returns the patient's screenings, newest first.
func (s *ScreeningService) ListByPatient(ctx context.Context, patientID string) ([]domain.Screening, error) {
	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.ListScreeningsByPatient(ctx, patientID)
}
