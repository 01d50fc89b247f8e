// Package security provides centralized security configuration and utilities:
// approval token generation, input validation, rate limiting, and structured
// security logging.
package security

import (
	"time"
)

// Config holds all security-related configuration values.
// These values are tuned based on OWASP ASVS and NIST guidelines.
type Config struct {
	// Secure password storage
	BcryptCost int // Cost factor for bcrypt hashing (recommended: 12)

	// Session management
	SessionTimeout    time.Duration // Session inactivity timeout
	SessionCookieName string        // Name of session cookie
	SessionSecure     bool          // Require HTTPS for session cookies
	SessionHTTPOnly   bool          // Prevent JavaScript access to session cookies
	SessionSameSite   string        // CSRF protection via SameSite attribute

	// Approval token protocol
	ApprovalTokenTTL time.Duration // Validity window of delegated approval links

	// Input validation
	MaxTitleLength       int // Maximum characters in a task title
	MaxDescriptionLength int // Maximum characters in a task description
	MaxNoteLength        int // Maximum characters in approval messages and notes
	MaxBulkBatchSize     int // Maximum task ids in one bulk approval
	QueryTimeout         time.Duration

	// Rate limiting (requests per time window)
	RateLimitLogin       int // Login endpoint, per minute per IP
	RateLimitRespond     int // Public approval response endpoint, per minute per IP
	RateLimitTokenLookup int // Public approval lookup endpoint, per minute per IP
	RateLimitInvite      int // User invitation endpoint, per hour per admin
}

// DefaultConfig returns security configuration with recommended defaults.
func DefaultConfig() *Config {
	return &Config{
		// Bcrypt cost 12 = 2^12 = 4096 iterations
		BcryptCost: 12,

		SessionTimeout:    8 * time.Hour,
		SessionCookieName: "apexboard_session",
		SessionSecure:     true,     // Requires HTTPS
		SessionHTTPOnly:   true,     // No JavaScript access
		SessionSameSite:   "Strict", // Strong CSRF protection

		// Delegated approval links live for a week
		ApprovalTokenTTL: 7 * 24 * time.Hour,

		MaxTitleLength:       200,
		MaxDescriptionLength: 10000,
		MaxNoteLength:        2000,
		MaxBulkBatchSize:     100,
		QueryTimeout:         30 * time.Second,

		RateLimitLogin:       5,  // per minute
		RateLimitRespond:     10, // per minute
		RateLimitTokenLookup: 30, // per minute
		RateLimitInvite:      20, // per hour
	}
}
