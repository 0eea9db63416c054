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

// AssessmentService records MMSE assessments. The total score and risk
// level are computed here at creation time and stored denormalized; they
// are never recomputed on read.
type AssessmentService struct {
	store   domain.RecordStore
	lookup  *PatientLookup
	reports cache.ReportCache
	audit   audit.Store
	events  domain.EventPublisher
	logger  *logrus.Logger
}

// NewAssessmentService creates the MMSE assessment service. Nil audit,
// cache and event collaborators are replaced with no-ops.
func NewAssessmentService(
	store domain.RecordStore,
	lookup *PatientLookup,
	reports cache.ReportCache,
	auditStore audit.Store,
	events domain.EventPublisher,
	logger *logrus.Logger,
) *AssessmentService {
	if reports == nil {
		reports = cache.NewNopReportCache()
	}
	if auditStore == nil {
		auditStore = audit.NewNopStore()
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &AssessmentService{
		store:   store,
		lookup:  lookup,
		reports: reports,
		audit:   auditStore,
		events:  events,
		logger:  logger,
	}
}

// Create validates the sub-domain scores, verifies the referenced patient
// exists, scores the assessment and persists it.
func (s *AssessmentService) Create(ctx context.Context, patientID string, scores domain.MMSEScores) (*domain.Assessment, error) {
	if err := ValidateMMSEScores(scores); err != nil {
		return nil, err
	}

	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidReference
		}
		return nil, err
	}

	total, riskLevel := ScoreMMSE(scores)

	assessment := &domain.Assessment{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		Scores:         scores,
		TotalScore:     total,
		RiskLevel:      riskLevel,
		AssessmentDate: time.Now().UTC(),
	}

	if err := s.store.CreateAssessment(ctx, assessment); err != nil {
		return nil, err
	}

	if err := s.reports.Invalidate(ctx, patientID); err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Failed to invalidate report cache")
	}
	recordAudit(ctx, s.audit, s.logger, audit.ActionAssessmentCreated, patientID,
		fmt.Sprintf("total score %d, %s", total, riskLevel))
	publishEvent(s.events, domain.EventAssessmentCreated, patientID, string(riskLevel))

	s.logger.WithFields(logrus.Fields{
		"patient_id":  patientID,
		"total_score": total,
		"risk_level":  riskLevel,
	}).Info("MMSE assessment recorded")

	return assessment, nil
}

// ListByPatient returns the patient's assessments, newest first. The
// patient must exist; an unknown ID is reported as not found rather than
// an empty history.
func (s *AssessmentService) ListByPatient(ctx context.Context, patientID string) ([]domain.Assessment, error) {
	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.ListAssessmentsByPatient(ctx, patientID)
}
