package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// ScreeningRepository handles risk-factor screening persistence. The
// indicator set and fired factor labels are stored as JSONB documents;
// screenings are immutable after creation.
type ScreeningRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewScreeningRepository creates a new screening repository
func NewScreeningRepository(db *pgxpool.Pool, logger *logrus.Logger) *ScreeningRepository {
	return &ScreeningRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new screening
func (r *ScreeningRepository) Create(ctx context.Context, screening *domain.Screening) error {
	indicators, err := json.Marshal(screening.Indicators)
	if err != nil {
		return fmt.Errorf("marshaling screening indicators: %w", err)
	}
	factors, err := json.Marshal(screening.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshaling risk factors: %w", err)
	}

	query := `
		INSERT INTO screenings (
			id, patient_id, indicators, risk_score, diagnosis, risk_factors, screening_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err = r.db.Exec(ctx, query,
		screening.ID,
		screening.PatientID,
		indicators,
		screening.RiskScore,
		screening.Diagnosis,
		factors,
		screening.ScreeningDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("screening %s already exists: %w", screening.ID, domain.ErrConflict)
		}
		r.log.WithFields(logrus.Fields{
			"screening_id": screening.ID,
			"patient_id":   screening.PatientID,
			"error":        err,
		}).Error("Failed to create screening")
		return fmt.Errorf("creating screening: %w", domain.ErrPersistence)
	}

	r.log.WithFields(logrus.Fields{
		"screening_id": screening.ID,
		"patient_id":   screening.PatientID,
		"risk_score":   screening.RiskScore,
		"diagnosis":    screening.Diagnosis,
	}).Info("Screening created successfully")

	return nil
}

// ListByPatient retrieves all screenings for a patient sorted by
// screening date descending
func (r *ScreeningRepository) ListByPatient(ctx context.Context, patientID string) ([]domain.Screening, error) {
	query := `
		SELECT id, patient_id, indicators, risk_score, diagnosis, risk_factors, screening_date
		FROM screenings
		WHERE patient_id = $1
		ORDER BY screening_date DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list screenings")
		return nil, fmt.Errorf("listing screenings: %w", domain.ErrPersistence)
	}
	defer rows.Close()

	screenings := []domain.Screening{}
	for rows.Next() {
		var s domain.Screening
		var indicators, factors []byte
		err := rows.Scan(
			&s.ID,
			&s.PatientID,
			&indicators,
			&s.RiskScore,
			&s.Diagnosis,
			&factors,
			&s.ScreeningDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning screening row: %w", domain.ErrPersistence)
		}
		if err := json.Unmarshal(indicators, &s.Indicators); err != nil {
			return nil, fmt.Errorf("unmarshaling screening indicators: %w", err)
		}
		if err := json.Unmarshal(factors, &s.RiskFactors); err != nil {
			return nil, fmt.Errorf("unmarshaling risk factors: %w", err)
		}
		screenings = append(screenings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating screening rows: %w", domain.ErrPersistence)
	}

	return screenings, nil
}
