package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// AssessmentRepository handles MMSE assessment persistence. Assessments
// are immutable after creation; there is no update path.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a new MMSE assessment
func (r *AssessmentRepository) Create(ctx context.Context, assessment *domain.Assessment) error {
	query := `
		INSERT INTO mmse_assessments (
			id, patient_id, orientation, memory, attention, recall,
			language, visual, total_score, risk_level, assessment_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.Exec(ctx, query,
		assessment.ID,
		assessment.PatientID,
		assessment.Scores.Orientation,
		assessment.Scores.Memory,
		assessment.Scores.Attention,
		assessment.Scores.Recall,
		assessment.Scores.Language,
		assessment.Scores.Visual,
		assessment.TotalScore,
		assessment.RiskLevel,
		assessment.AssessmentDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assessment %s already exists: %w", assessment.ID, domain.ErrConflict)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": assessment.ID,
			"patient_id":    assessment.PatientID,
			"error":         err,
		}).Error("Failed to create assessment")
		return fmt.Errorf("creating assessment: %w", domain.ErrPersistence)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": assessment.ID,
		"patient_id":    assessment.PatientID,
		"total_score":   assessment.TotalScore,
		"risk_level":    assessment.RiskLevel,
	}).Info("Assessment created successfully")

	return nil
}

// ListByPatient retrieves all assessments for a patient sorted by
// assessment date descending
func (r *AssessmentRepository) ListByPatient(ctx context.Context, patientID string) ([]domain.Assessment, error) {
	query := `
		SELECT id, patient_id, orientation, memory, attention, recall,
			   language, visual, total_score, risk_level, assessment_date
		FROM mmse_assessments
		WHERE patient_id = $1
		ORDER BY assessment_date DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list assessments")
		return nil, fmt.Errorf("listing assessments: %w", domain.ErrPersistence)
	}
	defer rows.Close()

	assessments := []domain.Assessment{}
	for rows.Next() {
		var a domain.Assessment
		err := rows.Scan(
			&a.ID,
			&a.PatientID,
			&a.Scores.Orientation,
			&a.Scores.Memory,
			&a.Scores.Attention,
			&a.Scores.Recall,
			&a.Scores.Language,
			&a.Scores.Visual,
			&a.TotalScore,
			&a.RiskLevel,
			&a.AssessmentDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", domain.ErrPersistence)
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", domain.ErrPersistence)
	}

	return assessments, nil
}
