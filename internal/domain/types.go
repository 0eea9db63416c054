package domain

// Core Enums and Types

// Gender is the closed set of accepted patient gender values
type Gender string

const (
	MALE   Gender = "Male"
	FEMALE Gender = "Female"
	OTHER  Gender = "Other"
)

// Valid reports whether g is one of the accepted gender values
func (g Gender) Valid() bool {
	switch g {
	case MALE, FEMALE, OTHER:
		return true
	}
	return false
}

// RiskLevel is the three-tier MMSE risk classification
type RiskLevel string

const (
	LOW_RISK    RiskLevel = "Low"
	MEDIUM_RISK RiskLevel = "Medium"
	HIGH_RISK   RiskLevel = "High"
)

// String returns the risk level as a string
func (r RiskLevel) String() string {
	return string(r)
}

// DementiaClass is the fixed four-value ordinal produced by the MRI classifier
type DementiaClass string

const (
	NON_DEMENTED DementiaClass = "Non Demented"
	VERY_MILD    DementiaClass = "Very Mild Dementia"
	MILD         DementiaClass = "Mild Dementia"
	MODERATE     DementiaClass = "Moderate Dementia"
)

// DementiaClasses lists all valid classes in ascending severity order
var DementiaClasses = []DementiaClass{NON_DEMENTED, VERY_MILD, MILD, MODERATE}

// Valid reports whether c is one of the fixed classifier output classes
func (c DementiaClass) Valid() bool {
	for _, v := range DementiaClasses {
		if c == v {
			return true
		}
	}
	return false
}

// String returns the class as a string
func (c DementiaClass) String() string {
	return string(c)
}

// Diagnosis is the binary outcome of the weighted risk-factor screening
type Diagnosis int

const (
	LOW_RISK_DIAGNOSIS  Diagnosis = 0
	HIGH_RISK_DIAGNOSIS Diagnosis = 1
)

// Label returns the human-readable form of the diagnosis flag
func (d Diagnosis) Label() string {
	if d == HIGH_RISK_DIAGNOSIS {
		return "high risk"
	}
	return "low risk"
}

// PatientIDCounter is the counter name used for patient ID allocation
const PatientIDCounter = "patientId"

// CounterBase is the initial sequence value for a never-seen counter
const CounterBase = 100

// DefaultModelVersion labels scans whose prediction came from the bundled
// stub classifier
const DefaultModelVersion = "ResNet18+ViT+Neuro-Symbolic"
