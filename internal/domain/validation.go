package domain

import "strings"

// ValidationResult carries the outcome of data-quality checks on a record.
// Errors block the save. Warnings allow it once the user confirms.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// AddError appends a blocking error
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning appends a confirmable warning
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// IsValid reports whether the record can be saved without confirmation
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// HasWarnings reports whether the save needs user confirmation
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ErrorMessage joins all blocking errors into one display string
func (r *ValidationResult) ErrorMessage() string {
	return strings.Join(r.Errors, "; ")
}
