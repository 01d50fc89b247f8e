// Package security provides input validation functionality.
package security

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ValidationService provides centralized input validation functions.
// All validation methods return descriptive errors that are safe to show to users.
type ValidationService struct {
	config *Config
}

// NewValidationService creates a new validation service with security configuration.
func NewValidationService(config *Config) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

// ValidateEmail validates email address format according to RFC 5322.
// Returns error if email is invalid or too long.
func (v *ValidationService) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if len(email) > 255 {
		return fmt.Errorf("email must be less than 255 characters")
	}

	// Use Go's standard mail.ParseAddress for RFC 5322 compliance
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidateTaskTitle validates task title presence and length.
func (v *ValidationService) ValidateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("task title is required")
	}

	if utf8.RuneCountInString(title) > v.config.MaxTitleLength {
		return fmt.Errorf("task title must be %d characters or less", v.config.MaxTitleLength)
	}

	return nil
}

// ValidateDescription validates optional long-form text fields.
func (v *ValidationService) ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > v.config.MaxDescriptionLength {
		return fmt.Errorf("description must be %d characters or less", v.config.MaxDescriptionLength)
	}

	return nil
}

// ValidateNote validates approval messages and response notes.
func (v *ValidationService) ValidateNote(note string) error {
	if utf8.RuneCountInString(note) > v.config.MaxNoteLength {
		return fmt.Errorf("note must be %d characters or less", v.config.MaxNoteLength)
	}

	return nil
}

// ValidateBulkBatch validates the size of a bulk approval batch.
func (v *ValidationService) ValidateBulkBatch(count int) error {
	if count == 0 {
		return fmt.Errorf("at least one task id is required")
	}

	if count > v.config.MaxBulkBatchSize {
		return fmt.Errorf("at most %d tasks may be approved in one batch", v.config.MaxBulkBatchSize)
	}

	return nil
}

// ValidateRequired checks that a required field has a non-blank value.
func (v *ValidationService) ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	return nil
}

// SanitizeString trims whitespace and strips control characters from input.
func (v *ValidationService) SanitizeString(input string) string {
	input = strings.TrimSpace(input)

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}

	return b.String()
}
