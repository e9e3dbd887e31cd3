package httptransport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"caregate/internal/audit"
	"caregate/internal/identity"
	"caregate/internal/platform/middleware"
	"caregate/internal/user"
	dErrors "caregate/pkg/domain-errors"
	"caregate/pkg/platform/httputil"

	"github.com/google/uuid"
)

const (
	defaultAuditLogLimit = 10
	maxAuditLogLimit     = 100
)

// AuditRecorder records one event per authenticated route invocation.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// AuditReader serves the audit-log listing endpoint.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]audit.Event, error)
}

// UserReader resolves the full user record behind an identity.
type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// APIHandler implements the /api/v1 surface. It is transport-only; auth is
// enforced by the middleware gate before these methods run.
type APIHandler struct {
	users    UserReader
	auditing AuditRecorder
	auditLog AuditReader
}

func NewAPIHandler(users UserReader, auditing AuditRecorder, auditLog AuditReader) *APIHandler {
	return &APIHandler{
		users:    users,
		auditing: auditing,
		auditLog: auditLog,
	}
}

// MessageResponse is the envelope for the hello and secure endpoints.
type MessageResponse struct {
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	UserID    *uuid.UUID `json:"user_id"`
}

func (h *APIHandler) handleHello(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())

	if id != nil {
		if err := h.record(r, id, audit.ActionHelloAccessed, http.StatusOK, nil); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	resp := MessageResponse{
		Message:   "Hello World - HIPAA Compliant API",
		Timestamp: time.Now().UTC(),
	}
	if id != nil {
		resp.UserID = &id.ID
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) handleSecure(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "Not authenticated"))
		return
	}

	if err := h.record(r, id, audit.ActionSecureAccessed, http.StatusOK, nil); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, MessageResponse{
		Message:   "This is a secure endpoint",
		Timestamp: time.Now().UTC(),
		UserID:    &id.ID,
	})
}

func (h *APIHandler) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "Not authenticated"))
		return
	}

	u, err := h.users.FindByID(r.Context(), id.ID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "load user record"))
		return
	}

	if err := h.record(r, id, audit.ActionUserInfoAccessed, http.StatusOK, nil); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, u.ToView())
}

// AuditLogResponse wraps the audit-log listing.
type AuditLogResponse struct {
	Events []audit.Event `json:"events"`
	Count  int           `json:"count"`
}

func (h *APIHandler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "Not authenticated"))
		return
	}

	limit, err := auditLogLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.auditLog.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit events"))
		return
	}

	if err := h.record(r, id, audit.ActionAuditLogAccessed, http.StatusOK, map[string]any{
		"limit": limit,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, AuditLogResponse{
		Events: events,
		Count:  len(events),
	})
}

// auditLogLimit parses and bounds the limit query parameter.
func auditLogLimit(raw string) (int, error) {
	if raw == "" {
		return defaultAuditLogLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, dErrors.New(dErrors.CodeInvalidRequest, "limit must be a positive integer")
	}
	if limit > maxAuditLogLimit {
		limit = maxAuditLogLimit
	}
	return limit, nil
}

// record writes the per-invocation audit event. In sync mode a store failure
// propagates so the caller fails the request.
func (h *APIHandler) record(r *http.Request, id *identity.Identity, action string, status int, details map[string]any) error {
	ctx := r.Context()
	event := audit.Event{
		ActorID:        &id.ID,
		ActorEmail:     id.Email,
		Action:         action,
		ResourceType:   "endpoint",
		ResourceID:     r.URL.Path,
		Outcome:        audit.OutcomeSuccess,
		Timestamp:      time.Now().UTC(),
		IPAddress:      middleware.GetClientIP(ctx),
		UserAgent:      middleware.GetUserAgent(ctx),
		RequestMethod:  r.Method,
		RequestURL:     r.URL.String(),
		ResponseStatus: status,
		RequestID:      middleware.GetRequestID(ctx),
		Details:        details,
	}
	if device := middleware.GetDeviceSummary(ctx); device != "" && device != "unknown" {
		if event.Details == nil {
			event.Details = map[string]any{}
		}
		event.Details["device"] = device
	}
	if err := h.auditing.Record(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record audit event")
	}
	return nil
}
