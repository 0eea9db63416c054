package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"github.com/neurocare-patient-server/internal/domain"
)

// defaultFontPaths are the usual DejaVu Sans locations on Debian and
// Alpine based images.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
}

// PDFRenderer renders composite reports as PDF documents.
type PDFRenderer struct {
	fontPaths []string
}

// NewPDFRenderer creates a PDF renderer. An explicit font path takes
// precedence over the built-in candidates.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	paths := defaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, defaultFontPaths...)
	}
	return &PDFRenderer{fontPaths: paths}
}

// pdfWriter tracks vertical position and starts a new page near the
// bottom margin.
type pdfWriter struct {
	pdf *gopdf.GoPdf
}

func (w *pdfWriter) line(size float64, text string) error {
	if w.pdf.GetY() > 780 {
		w.pdf.AddPage()
		w.pdf.SetY(40)
	}
	if err := w.pdf.SetFont("report", "", size); err != nil {
		return err
	}
	w.pdf.SetX(40)
	if err := w.pdf.Cell(nil, text); err != nil {
		return err
	}
	w.pdf.Br(size + 4)
	return nil
}

func (w *pdfWriter) gap(height float64) {
	w.pdf.Br(height)
}

// Render produces the PDF document for a report.
func (r *PDFRenderer) Render(report *domain.Report, now time.Time) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	pdf.SetY(40)

	var fontErr error
	loaded := false
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont("report", path); err == nil {
			loaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !loaded {
		return nil, fmt.Errorf("loading PDF font: %w", fontErr)
	}

	w := &pdfWriter{pdf: &pdf}
	p := report.Patient

	if err := w.line(18, "Patient Report - Alzheimer's Detection System"); err != nil {
		return nil, err
	}
	w.gap(10)

	if err := w.line(14, "Patient Information"); err != nil {
		return nil, err
	}
	patientLines := []string{
		fmt.Sprintf("Patient ID: %s", p.PatientID),
		fmt.Sprintf("Full Name: %s", p.FullName),
		fmt.Sprintf("Age: %d", p.Age),
		fmt.Sprintf("Gender: %s", p.Gender),
		fmt.Sprintf("Phone: %s", p.Phone),
		fmt.Sprintf("Address: %s", p.Address),
		fmt.Sprintf("Relative Name: %s", p.RelativeName),
		fmt.Sprintf("Relative Phone: %s", p.RelativeNumber),
		fmt.Sprintf("Medical History: %s", orNA(p.MedicalHistory)),
		fmt.Sprintf("Registration Date: %s", p.RegistrationDate.Format("2006-01-02")),
	}
	for _, l := range patientLines {
		if err := w.line(11, l); err != nil {
			return nil, err
		}
	}
	w.gap(10)

	if err := w.line(14, "MMSE Assessments"); err != nil {
		return nil, err
	}
	if len(report.MMSEAssessments) == 0 {
		if err := w.line(11, "No MMSE assessments available"); err != nil {
			return nil, err
		}
	}
	for i, a := range report.MMSEAssessments {
		lines := []string{
			fmt.Sprintf("Assessment %d (%s)", i+1, a.AssessmentDate.Format("2006-01-02")),
			fmt.Sprintf("  Total Score: %d/30, Risk Level: %s", a.TotalScore, a.RiskLevel),
			fmt.Sprintf("  Orientation %d/10, Memory %d/3, Attention %d/5, Recall %d/3, Language %d/8, Visual %d/1",
				a.Scores.Orientation, a.Scores.Memory, a.Scores.Attention,
				a.Scores.Recall, a.Scores.Language, a.Scores.Visual),
		}
		for _, l := range lines {
			if err := w.line(11, l); err != nil {
				return nil, err
			}
		}
	}
	w.gap(10)

	if err := w.line(14, "Risk-Factor Screenings"); err != nil {
		return nil, err
	}
	if len(report.Screenings) == 0 {
		if err := w.line(11, "No screenings available"); err != nil {
			return nil, err
		}
	}
	for i, sc := range report.Screenings {
		header := fmt.Sprintf("Screening %d (%s): score %d, %s",
			i+1, sc.ScreeningDate.Format("2006-01-02"), sc.RiskScore, sc.Diagnosis.Label())
		if err := w.line(11, header); err != nil {
			return nil, err
		}
		for _, factor := range sc.RiskFactors {
			if err := w.line(11, "  - "+factor); err != nil {
				return nil, err
			}
		}
	}
	w.gap(10)

	if err := w.line(14, "MRI Scans"); err != nil {
		return nil, err
	}
	if len(report.MRIScans) == 0 {
		if err := w.line(11, "No MRI scans available"); err != nil {
			return nil, err
		}
	}
	for i, scan := range report.MRIScans {
		l := fmt.Sprintf("Scan %d (%s): %s, %.2f%% confidence, model %s",
			i+1, scan.UploadDate.Format("2006-01-02"),
			scan.PredictedClass, scan.Confidence, scan.ModelVersion)
		if err := w.line(11, l); err != nil {
			return nil, err
		}
	}
	w.gap(14)

	if err := w.line(9, fmt.Sprintf("Generated on %s", now.Format("2006-01-02 15:04:05"))); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}
