package domain

import (
	"fmt"
	"strings"
)

// FormatPatientID builds the display identifier for an allocated sequence
// number and a patient name: "PID<sequence>-<sanitizedName>". Uniqueness is
// guaranteed solely by the sequence prefix; the name component is cosmetic,
// so a name that sanitizes to the empty string is accepted and yields an
// identifier of the form "PID<sequence>-".
func FormatPatientID(sequence int64, fullName string) string {
	return fmt.Sprintf("PID%d-%s", sequence, SanitizeName(fullName))
}

// SanitizeName strips every character that is not an ASCII letter or digit
// and lower-cases the remainder.
func SanitizeName(fullName string) string {
	var b strings.Builder
	b.Grow(len(fullName))
	for _, r := range fullName {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
