package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/domain"
)

// ReportService assembles composite patient reports: the patient record
// joined with the full assessment, screening and scan history, newest
// first. Derived scores are returned exactly as persisted.
type ReportService struct {
	store   domain.RecordStore
	reports cache.ReportCache
	audit   audit.Store
	logger  *logrus.Logger
}

// NewReportService creates the report service. Nil cache and audit
// collaborators are replaced with no-ops.
func NewReportService(
	store domain.RecordStore,
	reports cache.ReportCache,
	auditStore audit.Store,
	logger *logrus.Logger,
) *ReportService {
	if reports == nil {
		reports = cache.NewNopReportCache()
	}
	if auditStore == nil {
		auditStore = audit.NewNopStore()
	}
	return &ReportService{
		store:   store,
		reports: reports,
		audit:   auditStore,
		logger:  logger,
	}
}

// Assemble builds the composite report for a patient, serving from the
// cache when a fresh copy exists.
func (s *ReportService) Assemble(ctx context.Context, patientID string) (*domain.Report, error) {
	if cached, hit, err := s.reports.Get(ctx, patientID); err == nil && hit {
		s.logger.WithField("patient_id", patientID).Debug("Report cache hit")
		return cached, nil
	} else if err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Report cache lookup failed")
	}

	patient, err := s.store.FindPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	assessments, err := s.store.ListAssessmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading assessment history: %w", err)
	}
	screenings, err := s.store.ListScreeningsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading screening history: %w", err)
	}
	scans, err := s.store.ListScansByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading scan history: %w", err)
	}

	report := &domain.Report{
		Patient:         patient,
		MMSEAssessments: assessments,
		Screenings:      screenings,
		MRIScans:        scans,
	}

	if err := s.reports.Set(ctx, patientID, report); err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).
			Warn("Failed to cache report")
	}
	recordAudit(ctx, s.audit, s.logger, audit.ActionReportGenerated, patientID, "")

	return report, nil
}

// RenderText renders the report as the plain-text download document.
func RenderText(report *domain.Report, now time.Time) string {
	var b strings.Builder
	p := report.Patient

	b.WriteString("PATIENT REPORT - ALZHEIMER'S DETECTION SYSTEM\n")
	b.WriteString("===============================================\n\n")

	b.WriteString("PATIENT INFORMATION\n")
	b.WriteString("-------------------\n")
	fmt.Fprintf(&b, "Patient ID: %s\n", p.PatientID)
	fmt.Fprintf(&b, "Full Name: %s\n", p.FullName)
	fmt.Fprintf(&b, "Age: %d\n", p.Age)
	fmt.Fprintf(&b, "Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "Phone: %s\n", p.Phone)
	fmt.Fprintf(&b, "Address: %s\n", p.Address)
	fmt.Fprintf(&b, "Relative Name: %s\n", p.RelativeName)
	fmt.Fprintf(&b, "Relative Phone: %s\n", p.RelativeNumber)
	fmt.Fprintf(&b, "Medical History: %s\n", orNA(p.MedicalHistory))
	fmt.Fprintf(&b, "Registration Date: %s\n\n", p.RegistrationDate.Format("2006-01-02"))

	b.WriteString("MMSE ASSESSMENTS\n")
	b.WriteString("----------------\n")
	if len(report.MMSEAssessments) == 0 {
		b.WriteString("No MMSE assessments available\n")
	}
	for i, a := range report.MMSEAssessments {
		fmt.Fprintf(&b, "Assessment %d:\n", i+1)
		fmt.Fprintf(&b, "  Date: %s\n", a.AssessmentDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Total Score: %d/30\n", a.TotalScore)
		fmt.Fprintf(&b, "  Risk Level: %s\n", a.RiskLevel)
		b.WriteString("  Details:\n")
		fmt.Fprintf(&b, "    - Orientation: %d/10\n", a.Scores.Orientation)
		fmt.Fprintf(&b, "    - Memory: %d/3\n", a.Scores.Memory)
		fmt.Fprintf(&b, "    - Attention: %d/5\n", a.Scores.Attention)
		fmt.Fprintf(&b, "    - Recall: %d/3\n", a.Scores.Recall)
		fmt.Fprintf(&b, "    - Language: %d/8\n", a.Scores.Language)
		fmt.Fprintf(&b, "    - Visual-Spatial: %d/1\n\n", a.Scores.Visual)
	}
	b.WriteString("\n")

	b.WriteString("RISK-FACTOR SCREENINGS\n")
	b.WriteString("----------------------\n")
	if len(report.Screenings) == 0 {
		b.WriteString("No screenings available\n")
	}
	for i, sc := range report.Screenings {
		fmt.Fprintf(&b, "Screening %d:\n", i+1)
		fmt.Fprintf(&b, "  Date: %s\n", sc.ScreeningDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Risk Score: %d\n", sc.RiskScore)
		fmt.Fprintf(&b, "  Diagnosis: %s\n", sc.Diagnosis.Label())
		if len(sc.RiskFactors) > 0 {
			b.WriteString("  Risk Factors:\n")
			for _, factor := range sc.RiskFactors {
				fmt.Fprintf(&b, "    - %s\n", factor)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("MRI SCANS\n")
	b.WriteString("---------\n")
	if len(report.MRIScans) == 0 {
		b.WriteString("No MRI scans available\n")
	}
	for i, scan := range report.MRIScans {
		fmt.Fprintf(&b, "Scan %d:\n", i+1)
		fmt.Fprintf(&b, "  Upload Date: %s\n", scan.UploadDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "  Predicted Class: %s\n", scan.PredictedClass)
		fmt.Fprintf(&b, "  Confidence: %.2f%%\n", scan.Confidence)
		fmt.Fprintf(&b, "  Model Version: %s\n\n", scan.ModelVersion)
	}
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Total MMSE Assessments: %d\n", len(report.MMSEAssessments))
	fmt.Fprintf(&b, "Total Screenings: %d\n", len(report.Screenings))
	fmt.Fprintf(&b, "Total MRI Scans: %d\n", len(report.MRIScans))
	if len(report.MMSEAssessments) > 0 {
		fmt.Fprintf(&b, "Latest Risk Level: %s\n", report.MMSEAssessments[0].RiskLevel)
	}
	if len(report.MRIScans) > 0 {
		fmt.Fprintf(&b, "Latest MRI Prediction: %s\n", report.MRIScans[0].PredictedClass)
	}
	fmt.Fprintf(&b, "\nGenerated on: %s\n", now.Format("2006-01-02 15:04:05"))

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
