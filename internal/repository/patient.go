package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/domain"
)

// PatientRepository handles patient record persistence
type PatientRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *pgxpool.Pool, logger *logrus.Logger) *PatientRepository {
	return &PatientRepository{
		db:  db,
		log: logger,
	}
}

const patientColumns = `patient_id, full_name, age, gender, phone, address,
	relative_name, relative_number, medical_history, registration_date`

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var p domain.Patient
	err := row.Scan(
		&p.PatientID,
		&p.FullName,
		&p.Age,
		&p.Gender,
		&p.Phone,
		&p.Address,
		&p.RelativeName,
		&p.RelativeNumber,
		&p.MedicalHistory,
		&p.RegistrationDate,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new patient record
func (r *PatientRepository) Create(ctx context.Context, patient *domain.Patient) error {
	query := `
		INSERT INTO patients (
			patient_id, full_name, age, gender, phone, address,
			relative_name, relative_number, medical_history, registration_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.Exec(ctx, query,
		patient.PatientID,
		patient.FullName,
		patient.Age,
		patient.Gender,
		patient.Phone,
		patient.Address,
		patient.RelativeName,
		patient.RelativeNumber,
		patient.MedicalHistory,
		patient.RegistrationDate,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("patient %s already exists: %w", patient.PatientID, domain.ErrConflict)
		}
		r.log.WithFields(logrus.Fields{
			"patient_id": patient.PatientID,
			"error":      err,
		}).Error("Failed to create patient")
		return fmt.Errorf("creating patient: %w", domain.ErrPersistence)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id": patient.PatientID,
		"full_name":  patient.FullName,
	}).Info("Patient created successfully")

	return nil
}

// GetByID retrieves a patient by its display identifier
func (r *PatientRepository) GetByID(ctx context.Context, patientID string) (*domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE patient_id = $1`

	patient, err := scanPatient(r.db.QueryRow(ctx, query, patientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", patientID, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to get patient by ID")
		return nil, fmt.Errorf("getting patient by ID: %w", domain.ErrPersistence)
	}

	return patient, nil
}

// List retrieves all patients sorted by registration date descending
func (r *PatientRepository) List(ctx context.Context) ([]domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY registration_date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to list patients")
		return nil, fmt.Errorf("listing patients: %w", domain.ErrPersistence)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// FindByQuery retrieves patients matching one or more query criteria.
// Zero-valued criteria are ignored; an empty query matches nothing.
func (r *PatientRepository) FindByQuery(ctx context.Context, q domain.PatientQuery) ([]domain.Patient, error) {
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if q.PatientID != "" {
		args = append(args, q.PatientID)
		clauses = append(clauses, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if q.FullName != "" {
		args = append(args, q.FullName)
		clauses = append(clauses, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if q.Phone != "" {
		args = append(args, q.Phone)
		clauses = append(clauses, fmt.Sprintf("phone = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return []domain.Patient{}, nil
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY registration_date DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.WithError(err).Error("Failed to query patients")
		return nil, fmt.Errorf("querying patients: %w", domain.ErrPersistence)
	}
	defer rows.Close()

	return collectPatients(rows)
}

func collectPatients(rows pgx.Rows) ([]domain.Patient, error) {
	patients := []domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patient row: %w", domain.ErrPersistence)
		}
		patients = append(patients, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patient rows: %w", domain.ErrPersistence)
	}
	return patients, nil
}

// Update replaces every editable field of an existing patient. The
// identifier and registration date are immutable.
func (r *PatientRepository) Update(ctx context.Context, patient *domain.Patient) error {
	query := `
		UPDATE patients SET
			full_name = $2, age = $3, gender = $4, phone = $5, address = $6,
			relative_name = $7, relative_number = $8, medical_history = $9
		WHERE patient_id = $1`

	tag, err := r.db.Exec(ctx, query,
		patient.PatientID,
		patient.FullName,
		patient.Age,
		patient.Gender,
		patient.Phone,
		patient.Address,
		patient.RelativeName,
		patient.RelativeNumber,
		patient.MedicalHistory,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patient.PatientID,
			"error":      err,
		}).Error("Failed to update patient")
		return fmt.Errorf("updating patient: %w", domain.ErrPersistence)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %s: %w", patient.PatientID, domain.ErrNotFound)
	}

	r.log.WithField("patient_id", patient.PatientID).Info("Patient updated successfully")
	return nil
}
