package domain

import (
	"testing"
)

func TestFormatPatientID(t *testing.T) {
	tests := []struct {
		name     string
		sequence int64
		fullName string
		expected string
	}{
		{"Simple name", 101, "John Smith!", "PID101-johnsmith"},
		{"First allocation", 100, "Jane Doe", "PID100-janedoe"},
		{"Mixed case and digits", 205, "Mary-Ann O'Neil 3rd", "PID205-maryannoneil3rd"},
		{"Punctuation only", 150, "!!! ???", "PID150-"},
		{"Empty name", 151, "", "PID151-"},
		{"Non-ASCII stripped", 152, "Søren Ægir", "PID152-srengir"},
		{"Whitespace only", 153, "   ", "PID153-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPatientID(tt.sequence, tt.fullName)
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFormatPatientIDIdempotent(t *testing.T) {
	first := FormatPatientID(101, "John Smith!")
	second := FormatPatientID(101, "John Smith!")
	if first != second {
		t.Errorf("Expected identical identifiers, got %s and %s", first, second)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercases", "JOHN", "john"},
		{"Keeps digits", "Agent 47", "agent47"},
		{"Strips punctuation", "o'connor, jr.", "oconnorjr"},
		{"Empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
