package domain

import (
	"time"
)

// Core Data Models

// Patient is the root record of the registry. PatientID is assigned at
// registration and never changes afterward.
type Patient struct {
	PatientID        string    `json:"patientId"`
	FullName         string    `json:"fullName"`
	Age              int       `json:"age"`
	Gender           Gender    `json:"gender"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	RelativeName     string    `json:"relativeName"`
	RelativeNumber   string    `json:"relativeNumber"`
	MedicalHistory   string    `json:"medicalHistory"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// PatientInput carries the caller-supplied patient fields. PatientID and
// RegistrationDate are system-assigned and deliberately absent.
type PatientInput struct {
	FullName       string `json:"fullName"`
	Age            int    `json:"age"`
	Gender         Gender `json:"gender"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	RelativeName   string `json:"relativeName"`
	RelativeNumber string `json:"relativeNumber"`
	MedicalHistory string `json:"medicalHistory"`
}

// PatientQuery selects patients by one or more of the supported criteria.
// Zero-valued fields are ignored.
type PatientQuery struct {
	PatientID string `json:"patientId,omitempty"`
	FullName  string `json:"fullName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// MMSEScores holds the six MMSE sub-domain scores
type MMSEScores struct {
	Orientation int `json:"orientation"` // 0-10
	Memory      int `json:"memory"`      // 0-3
	Attention   int `json:"attention"`   // 0-5
	Recall      int `json:"recall"`      // 0-3
	Language    int `json:"language"`    // 0-8
	Visual      int `json:"visual"`      // 0-1
}

// Sum returns the MMSE total score in [0,30] for in-range inputs
func (s MMSEScores) Sum() int {
	return s.Orientation + s.Memory + s.Attention + s.Recall + s.Language + s.Visual
}

// Assessment is a stored MMSE assessment. TotalScore and RiskLevel are
// derived from Scores at creation time and must always equal their
// recomputation; the record is immutable after creation.
type Assessment struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patientId"`
	Scores         MMSEScores `json:"mmseScores"`
	TotalScore     int        `json:"totalScore"`
	RiskLevel      RiskLevel  `json:"riskLevel"`
	AssessmentDate time.Time  `json:"assessmentDate"`
}

// ScreeningIndicators is the weighted risk-factor input set: thirteen
// boolean (0/1) indicators plus three ordinal scores.
type ScreeningIndicators struct {
	MMSE                      int `json:"mmse"`                 // 0-30
	FunctionalAssessment      int `json:"functionalAssessment"` // 0-10
	ADL                       int `json:"adl"`                  // 0-10
	FamilyHistoryAlzheimers   int `json:"familyHistoryAlzheimers"`
	CardiovascularDisease     int `json:"cardiovascularDisease"`
	Diabetes                  int `json:"diabetes"`
	Depression                int `json:"depression"`
	HeadInjury                int `json:"headInjury"`
	Hypertension              int `json:"hypertension"`
	MemoryComplaints          int `json:"memoryComplaints"`
	BehavioralProblems        int `json:"behavioralProblems"`
	Confusion                 int `json:"confusion"`
	Disorientation            int `json:"disorientation"`
	PersonalityChanges        int `json:"personalityChanges"`
	DifficultyCompletingTasks int `json:"difficultyCompletingTasks"`
	Forgetfulness             int `json:"forgetfulness"`
}

// Screening is a stored risk-factor screening. RiskScore, Diagnosis and
// RiskFactors are derived from Indicators at creation time; the record is
// immutable after creation.
type Screening struct {
	ID            string              `json:"id"`
	PatientID     string              `json:"patientId"`
	Indicators    ScreeningIndicators `json:"indicators"`
	RiskScore     int                 `json:"riskScore"`
	Diagnosis     Diagnosis           `json:"diagnosis"`
	RiskFactors   []string            `json:"riskFactors"`
	ScreeningDate time.Time           `json:"screeningDate"`
}

// Scan is a stored MRI scan. Image is the base64-encoded payload; the
// record is immutable after creation.
type Scan struct {
	ID             string        `json:"id"`
	PatientID      string        `json:"patientId"`
	Image          string        `json:"mriImage"`
	PredictedClass DementiaClass `json:"predictedClass"`
	Confidence     float64       `json:"confidence"`
	ModelVersion   string        `json:"modelVersion"`
	UploadDate     time.Time     `json:"uploadDate"`
}

// Prediction is a classifier output for an MRI image
type Prediction struct {
	PredictedClass DementiaClass `json:"predictedClass"`
	Confidence     float64       `json:"confidence"`
	ModelVersion   string        `json:"modelVersion"`
}

// Counter is the persistent sequence record backing patient ID allocation
type Counter struct {
	Name     string `json:"name"`
	Sequence int64  `json:"sequence"`
}

// Report is the composite patient view: the patient record plus all
// dependent history lists, newest first. Derived scores are returned as
// persisted, never recomputed.
type Report struct {
	Patient         *Patient     `json:"patient"`
	MMSEAssessments []Assessment `json:"mmseAssessments"`
	Screenings      []Screening  `json:"screenings"`
	MRIScans        []Scan       `json:"mriScans"`
}

// Event is a record-change notification broadcast to dashboard subscribers
type Event struct {
	Type      string    `json:"type"`
	PatientID string    `json:"patientId"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types emitted by the services
const (
	EventPatientCreated    = "patient.created"
	EventPatientUpdated    = "patient.updated"
	EventPatientDeleted    = "patient.deleted"
	EventAssessmentCreated = "assessment.created"
	EventScreeningCreated  = "screening.created"
	EventScanCreated       = "scan.created"
)
