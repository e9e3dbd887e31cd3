package audit

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how the audited action finished.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeError   Outcome = "error"
)

// Event is the structured record of an authenticated action, required for
// compliance traceability. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	ID uuid.UUID `json:"id"`

	// Who performed the action. Nil for unauthenticated failures that are
	// still audit-worthy.
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	ActorEmail string     `json:"actor_email,omitempty"`

	// What happened.
	Action       string  `json:"action"`
	ResourceType string  `json:"resource_type"`
	ResourceID   string  `json:"resource_id,omitempty"`
	Outcome      Outcome `json:"outcome"`

	// When and where.
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`

	// Request/response context.
	RequestMethod  string `json:"request_method,omitempty"`
	RequestURL     string `json:"request_url,omitempty"`
	ResponseStatus int    `json:"response_status,omitempty"`
	RequestID      string `json:"request_id,omitempty"`

	// Free-form, PHI-sanitized before persistence.
	Details map[string]any `json:"details,omitempty"`
}

// Action names recorded by the API surface.
const (
	ActionHelloAccessed    = "hello_accessed"
	ActionSecureAccessed   = "secure_accessed"
	ActionUserInfoAccessed = "userinfo_accessed"
	ActionAuditLogAccessed = "audit_log_accessed"
	ActionAuthFailed       = "auth_failed"
)
