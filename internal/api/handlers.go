package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neurocare-patient-server/internal/domain"
	"github.com/neurocare-patient-server/internal/middleware"
	"github.com/neurocare-patient-server/internal/service"
)

// respondError maps domain errors onto HTTP responses.
func (s *Server) respondError(c *gin.Context, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "All required fields must be filled",
			"errors":  verrs,
		})
	case errors.Is(err, domain.ErrInvalidReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid Patient ID"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Patient not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "Record already exists"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
	default:
		s.logger.WithError(err).WithField("path", c.Request.URL.Path).
			Error("Request handling failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// requireAdmin aborts with 403 unless the session manages patients.
func requireAdmin(c *gin.Context) bool {
	if !middleware.SessionFrom(c).CanManagePatients() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
		return false
	}
	return true
}

// requirePatientAccess aborts with 403 unless the session may read the
// given patient's records.
func requirePatientAccess(c *gin.Context, patientID string) bool {
	if !middleware.SessionFrom(c).CanAccessPatient(patientID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
		return false
	}
	return true
}

// Patients

func (s *Server) handleRegisterPatient(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var input domain.PatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	patient, err := s.patients.Register(c.Request.Context(), &input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   fmt.Sprintf("Patient details added successfully. Generated Patient ID: %s", patient.PatientID),
		"patientId": patient.PatientID,
		"patient":   patient,
	})
}

func (s *Server) handleListPatients(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	query := domain.PatientQuery{
		PatientID: c.Query("patientId"),
		FullName:  c.Query("fullName"),
		Phone:     c.Query("phone"),
	}

	var (
		patients []domain.Patient
		err      error
	)
	if query == (domain.PatientQuery{}) {
		patients, err = s.patients.List(c.Request.Context())
	} else {
		patients, err = s.patients.Search(c.Request.Context(), query)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patients)
}

func (s *Server) handleGetPatient(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	patient, err := s.patients.Get(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

func (s *Server) handleUpdatePatient(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	var input domain.PatientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	patient, err := s.patients.Update(c.Request.Context(), c.Param("patientId"), &input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Patient details updated successfully",
		"patient": patient,
	})
}

func (s *Server) handleDeletePatient(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	if err := s.patients.Delete(c.Request.Context(), c.Param("patientId")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Patient and associated records deleted successfully",
	})
}

func (s *Server) handleValidatePatient(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	identity, err := s.patients.Validate(c.Request.Context(), patientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Invalid Patient ID"})
			return
		}
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

// MMSE assessments

type assessmentRequest struct {
	PatientID  string            `json:"patientId"`
	MMSEScores domain.MMSEScores `json:"mmseScores"`
}

func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if !requirePatientAccess(c, req.PatientID) {
		return
	}

	assessment, err := s.assessments.Create(c.Request.Context(), req.PatientID, req.MMSEScores)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    fmt.Sprintf("MMSE test result saved successfully for Patient ID: %s", req.PatientID),
		"assessment": assessment,
	})
}

func (s *Server) handleListAssessments(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	assessments, err := s.assessments.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessments)
}

// Risk-factor screenings

type screeningRequest struct {
	PatientID  string                     `json:"patientId"`
	Indicators domain.ScreeningIndicators `json:"indicators"`
}

func (s *Server) handleCreateScreening(c *gin.Context) {
	var req screeningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if !requirePatientAccess(c, req.PatientID) {
		return
	}

	screening, err := s.screenings.Create(c.Request.Context(), req.PatientID, req.Indicators)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   fmt.Sprintf("Screening saved successfully for Patient ID: %s", req.PatientID),
		"screening": screening,
	})
}

func (s *Server) handleListScreenings(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	screenings, err := s.screenings.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, screenings)
}

// MRI scans

type scanRequest struct {
	PatientID  string             `json:"patientId"`
	MRIImage   string             `json:"mriImage"`
	Prediction *domain.Prediction `json:"prediction,omitempty"`
}

func (s *Server) handleCreateScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if !requirePatientAccess(c, req.PatientID) {
		return
	}

	scan, err := s.scans.Create(c.Request.Context(), req.PatientID, req.MRIImage, req.Prediction)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("MRI Scan uploaded successfully. Detected class: %s.", scan.PredictedClass),
		"scan":    scan,
	})
}

func (s *Server) handleListScans(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	scans, err := s.scans.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scans)
}

// Reports

func (s *Server) handleGetReport(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	report, err := s.reports.Assemble(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleDownloadReport(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	report, err := s.reports.Assemble(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("Report_%s_%s.txt", patientID, now.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.RenderText(report, now)))
}

func (s *Server) handleDownloadReportPDF(c *gin.Context) {
	patientID := c.Param("patientId")
	if !requirePatientAccess(c, patientID) {
		return
	}

	report, err := s.reports.Assemble(c.Request.Context(), patientID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	now := time.Now().UTC()
	document, err := s.pdf.Render(report, now)
	if err != nil {
		s.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("Report_%s_%s.pdf", patientID, now.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", document)
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// queryInt reads an integer query parameter, falling back on absence or
// a non-numeric value.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// handleListAudit returns recent audit trail entries, newest first.
// A patientId query parameter narrows the trail to a single patient.
func (s *Server) handleListAudit(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	limit := queryInt(c, "limit", defaultAuditLimit)
	if limit < 1 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	if patientID := c.Query("patientId"); patientID != "" {
		entries, err := s.audit.ListByPatient(c.Request.Context(), patientID, limit)
		if err != nil {
			s.respondError(c, fmt.Errorf("listing patient audit trail: %w", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"patientId": patientID,
			"count":     len(entries),
			"entries":   entries,
		})
		return
	}

	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := s.audit.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, fmt.Errorf("listing audit trail: %w", err))
		return
	}
	total, err := s.audit.Count(c.Request.Context())
	if err != nil {
		s.respondError(c, fmt.Errorf("counting audit trail: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"count":   len(entries),
		"entries": entries,
	})
}

// handleExportAudit streams the full audit trail as a JSON attachment.
func (s *Server) handleExportAudit(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}

	filename := fmt.Sprintf("audit_export_%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := s.audit.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		// Headers are already out; the truncated body is all we can signal.
		s.logger.WithError(err).Error("Audit export failed")
	}
}
