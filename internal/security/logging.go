// Package security provides structured JSON logging for application and
// security events.
package security

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"
)

// LogLevel identifies the severity of a log entry.
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// SecurityEventType classifies security-relevant events for monitoring.
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventLogout             SecurityEventType = "LOGOUT"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"

	EventApprovalRequestSent    SecurityEventType = "APPROVAL_REQUEST_SENT"
	EventApprovalRequestCancel  SecurityEventType = "APPROVAL_REQUEST_CANCEL"
	EventApprovalTokenResponse  SecurityEventType = "APPROVAL_TOKEN_RESPONSE"
	EventApprovalTokenRejected  SecurityEventType = "APPROVAL_TOKEN_REJECTED"
	EventTaskDirectApprove      SecurityEventType = "TASK_DIRECT_APPROVE"
	EventTaskDelete             SecurityEventType = "TASK_DELETE"
	EventUserInvite             SecurityEventType = "USER_INVITE"
	EventPermissionMatrixChange SecurityEventType = "PERMISSION_MATRIX_CHANGE"
)

// LogEntry is the JSON shape of every log line.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     LogLevel          `json:"level"`
	Message   string            `json:"message"`
	EventType SecurityEventType `json:"event_type,omitempty"`

	// Actor context for security events
	ActorID    *string `json:"actor_id,omitempty"`
	ActorEmail string  `json:"actor_email,omitempty"`
	IPAddress  string  `json:"ip_address,omitempty"`
	UserAgent  string  `json:"user_agent,omitempty"`

	// HTTP request context
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms,omitempty"`

	Error string                 `json:"error,omitempty"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Logger writes structured JSON log entries, one per line.
// The zero value is not usable; construct with NewLogger.
type Logger struct {
	output *log.Logger
}

// NewLogger creates a Logger writing to stdout.
func NewLogger() *Logger {
	return &Logger{
		output: log.New(os.Stdout, "", 0),
	}
}

// SetOutput redirects log output, primarily for tests.
func (l *Logger) SetOutput(out *log.Logger) {
	l.output = out
}

func (l *Logger) write(entry LogEntry) {
	entry.Timestamp = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		// Fall back to plain output rather than dropping the entry
		l.output.Printf(`{"level":"ERROR","message":"failed to marshal log entry: %v"}`, err)
		return
	}
	l.output.Println(string(data))
}

// Info logs an informational message.
func (l *Logger) Info(message string) {
	l.write(LogEntry{Level: LogLevelInfo, Message: message})
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	l.write(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs an error message with an optional underlying error.
func (l *Logger) Error(message string, err error) {
	entry := LogEntry{Level: LogLevelError, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// Critical logs a critical failure with an optional underlying error.
func (l *Logger) Critical(message string, err error) {
	entry := LogEntry{Level: LogLevelCritical, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.write(entry)
}

// SecurityEvent logs a security-relevant event with actor context.
//
// Parameters:
//   - eventType: Classification of the event
//   - actorID: User id performing the action (nil for anonymous callers)
//   - actorEmail: Email or other display identifier, may be empty
//   - ipAddress: Source IP of the request
//   - userAgent: Client identifier
//   - extra: Arbitrary structured context (task id, role, etc.)
func (l *Logger) SecurityEvent(eventType SecurityEventType, actorID *string, actorEmail, ipAddress, userAgent string, extra map[string]interface{}) {
	l.write(LogEntry{
		Level:      LogLevelSecurity,
		Message:    string(eventType),
		EventType:  eventType,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Extra:      extra,
	})
}

// HTTPRequest logs a completed HTTP request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ipAddress, userAgent string) {
	l.write(LogEntry{
		Level:     LogLevelInfo,
		Message:   method + " " + path + " " + strconv.Itoa(status),
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMS: latencyMS,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}
