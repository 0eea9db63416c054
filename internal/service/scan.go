package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/domain"
)

// ScanService records MRI scans. When the caller supplies no prediction
// the configured classifier produces one; a caller-supplied prediction is
// validated and stored as given.
type ScanService struct {
	store      domain.RecordStore
	lookup     *PatientLookup
	classifier domain.Classifier
	reports    cache.ReportCache
	audit      audit.Store
	events     domain.EventPublisher
	logger     *logrus.Logger
}

// NewScanService creates the MRI scan service. Nil audit, cache and
// event collaborators are replaced with no-ops; the classifier is
// required.
func NewScanService(
	store domain.RecordStore,
	lookup *PatientLookup,
	classifier domain.Classifier,
	reports cache.ReportCache,
	auditStore audit.Store,
	events domain.EventPublisher,
	logger *logrus.Logger,
) *ScanService {
	if reports == nil {
		reports = cache.NewNopReportCache()
	}
	if auditStore == nil {
		auditStore = audit.NewNopStore()
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &ScanService{
		store:      store,
		lookup:     lookup,
		classifier: classifier,
		reports:    reports,
		audit:      auditStore,
		events:     events,
		logger:     logger,
	}
}

// validateSuppliedPrediction checks a caller-provided prediction.
func validateSuppliedPrediction(prediction *domain.Prediction) error {
	var errs domain.ValidationErrors
	if !prediction.PredictedClass.Valid() {
		errs = append(errs, domain.NewValidationError("predictedClass",
			"must be one of the supported dementia classes", string(prediction.PredictedClass)))
	}
	if prediction.Confidence < 0 || prediction.Confidence > 100 {
		errs = append(errs, domain.NewValidationError("confidence",
			"must be between 0 and 100", fmt.Sprintf("%g", prediction.Confidence)))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Create stores an MRI scan for the patient. The image is the
// base64-encoded payload; prediction may be nil, in which case the
// classifier is consulted.
func (s *ScanService) Create(ctx context.Context, patientID, image string, prediction *domain.Prediction) (*domain.Scan, error) {
	if image == "" {
		return nil, domain.ValidationErrors{
			domain.NewValidationError("mriImage", "is required", ""),
		}
	}
	raw, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, domain.ValidationErrors{
			domain.NewValidationError("mriImage", "must be valid base64", ""),
		}
	}

	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidReference
		}
		return nil, err
	}

	if prediction != nil {
		if err := validateSuppliedPrediction(prediction); err != nil {
			return nil, err
		}
		if prediction.ModelVersion == "" {
			prediction.ModelVersion = domain.DefaultModelVersion
		}
	} else {
		prediction, err = s.classifier.Classify(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("classifying MRI image: %w", err)
		}
	}

	scan := &domain.Scan{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		Image:          image,
		PredictedClass: prediction.PredictedClass,
		Confidence:     prediction.Confidence,
		ModelVersion:   prediction.ModelVersion,
		UploadDate:     time.Now().UTC(),
	}

	if err := s.store.CreateScan(ctx, scan); err != nil {
		return nil, err
	}

	if err := s.reports.Invalidate(ctx, patientID); err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Failed to invalidate report cache")
	}
	recordAudit(ctx, s.audit, s.logger, audit.ActionScanCreated, patientID,
		fmt.Sprintf("%s (%.1f%%)", scan.PredictedClass, scan.Confidence))
	publishEvent(s.events, domain.EventScanCreated, patientID, string(scan.PredictedClass))

	s.logger.WithFields(logrus.Fields{
		"patient_id":      patientID,
		"predicted_class": scan.PredictedClass,
		"confidence":      scan.Confidence,
		"model_version":   scan.ModelVersion,
	}).Info("MRI scan recorded")

	return scan, nil
}

// ListByPatient returns the patient's scans, newest first.
func (s *ScanService) ListByPatient(ctx context.Context, patientID string) ([]domain.Scan, error) {
	if _, err := s.lookup.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.ListScansByPatient(ctx, patientID)
}
