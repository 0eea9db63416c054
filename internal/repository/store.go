package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/database"
	"github.com/neurocare-patient-server/internal/domain"
)

// Store composes the per-entity repositories into the domain.RecordStore
// facade. Single-record operations delegate to the repositories; the
// cascade delete runs in one transaction so a patient and its dependent
// records are removed together or not at all.
type Store struct {
	db          *database.DB
	counters    *CounterRepository
	patients    *PatientRepository
	assessments *AssessmentRepository
	screenings  *ScreeningRepository
	scans       *ScanRepository
	log         *logrus.Logger
}

// NewStore creates a new record store over the given connection
func NewStore(db *database.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:          db,
		counters:    NewCounterRepository(db.Pool, logger),
		patients:    NewPatientRepository(db.Pool, logger),
		assessments: NewAssessmentRepository(db.Pool, logger),
		screenings:  NewScreeningRepository(db.Pool, logger),
		scans:       NewScanRepository(db.Pool, logger),
		log:         logger,
	}
}

// Allocate hands out the next value of the named sequence, satisfying
// domain.SequenceAllocator.
func (s *Store) Allocate(ctx context.Context, counterName string) (int64, error) {
	return s.counters.Allocate(ctx, counterName)
}

func (s *Store) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	return s.patients.Create(ctx, patient)
}

func (s *Store) FindPatientByID(ctx context.Context, patientID string) (*domain.Patient, error) {
	return s.patients.GetByID(ctx, patientID)
}

func (s *Store) FindPatientsByQuery(ctx context.Context, query domain.PatientQuery) ([]domain.Patient, error) {
	return s.patients.FindByQuery(ctx, query)
}

func (s *Store) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	return s.patients.List(ctx)
}

func (s *Store) UpdatePatient(ctx context.Context, patient *domain.Patient) error {
	return s.patients.Update(ctx, patient)
}

// DeletePatient removes the patient and every dependent assessment,
// screening and scan. The whole cascade runs in one transaction.
func (s *Store) DeletePatient(ctx context.Context, patientID string) error {
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM patients WHERE patient_id = $1`, patientID)
		if err != nil {
			return fmt.Errorf("deleting patient: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("patient %s: %w", patientID, domain.ErrNotFound)
		}

		for _, table := range []string{"mmse_assessments", "screenings", "mri_scans"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE patient_id = $1`, patientID); err != nil {
				return fmt.Errorf("deleting dependent records from %s: %w", table, err)
			}
		}
		return nil
	})

	if err != nil {
		if IsDomainError(err) {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to cascade-delete patient")
		return fmt.Errorf("deleting patient %s: %w", patientID, domain.ErrPersistence)
	}

	s.log.WithField("patient_id", patientID).Info("Patient and dependent records deleted")
	return nil
}

func (s *Store) CreateAssessment(ctx context.Context, assessment *domain.Assessment) error {
	return s.assessments.Create(ctx, assessment)
}

func (s *Store) ListAssessmentsByPatient(ctx context.Context, patientID string) ([]domain.Assessment, error) {
	return s.assessments.ListByPatient(ctx, patientID)
}

func (s *Store) CreateScreening(ctx context.Context, screening *domain.Screening) error {
	return s.screenings.Create(ctx, screening)
}

func (s *Store) ListScreeningsByPatient(ctx context.Context, patientID string) ([]domain.Screening, error) {
	return s.screenings.ListByPatient(ctx, patientID)
}

func (s *Store) CreateScan(ctx context.Context, scan *domain.Scan) error {
	return s.scans.Create(ctx, scan)
}

func (s *Store) ListScansByPatient(ctx context.Context, patientID string) ([]domain.Scan, error) {
	return s.scans.ListByPatient(ctx, patientID)
}
