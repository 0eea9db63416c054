package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// ScanRepository handles MRI scan persistence. Scans are immutable after
// creation.
type ScanRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *pgxpool.Pool, logger *logrus.Logger) *ScanRepository {
	return &ScanRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new MRI scan
func (r *ScanRepository) Create(ctx context.Context, scan *domain.Scan) error {
	query := `
		INSERT INTO mri_scans (
			id, patient_id, image, predicted_class, confidence, model_version, upload_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.db.Exec(ctx, query,
		scan.ID,
		scan.PatientID,
		scan.Image,
		scan.PredictedClass,
		scan.Confidence,
		scan.ModelVersion,
		scan.UploadDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("scan %s already exists: %w", scan.ID, domain.ErrConflict)
		}
		r.log.WithFields(logrus.Fields{
			"scan_id":    scan.ID,
			"patient_id": scan.PatientID,
			"error":      err,
		}).Error("Failed to create scan")
		return fmt.Errorf("creating scan: %w", domain.ErrPersistence)
	}

	r.log.WithFields(logrus.Fields{
		"scan_id":         scan.ID,
		"patient_id":      scan.PatientID,
		"predicted_class": scan.PredictedClass,
		"confidence":      scan.Confidence,
	}).Info("Scan created successfully")

	return nil
}

// ListByPatient retrieves all scans for a patient sorted by upload date
// descending
func (r *ScanRepository) ListByPatient(ctx context.Context, patientID string) ([]domain.Scan, error) {
	query := `
		SELECT id, patient_id, image, predicted_class, confidence, model_version, upload_date
		FROM mri_scans
		WHERE patient_id = $1
		ORDER BY upload_date DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list scans")
		return nil, fmt.Errorf("listing scans: %w", domain.ErrPersistence)
	}
	defer rows.Close()

	scans := []domain.Scan{}
	for rows.Next() {
		var s domain.Scan
		err := rows.Scan(
			&s.ID,
			&s.PatientID,
			&s.Image,
			&s.PredictedClass,
			&s.Confidence,
			&s.ModelVersion,
			&s.UploadDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", domain.ErrPersistence)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan rows: %w", domain.ErrPersistence)
	}

	return scans, nil
}
