package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"caregate/internal/audit"
	"caregate/internal/identity"
	"caregate/internal/platform/metrics"
	"caregate/internal/token"
	dErrors "caregate/pkg/domain-errors"

	"github.com/google/uuid"
)

// TokenValidator verifies a raw bearer token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// AuditSink records auth failures. Satisfied by the audit Recorder.
type AuditSink interface {
	Record(ctx context.Context, event audit.Event) error
}

type contextKeyIdentity struct{}

// GetIdentity retrieves the authenticated identity from the context. Nil on
// optional-auth routes when no credential was presented.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(contextKeyIdentity{}).(*identity.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity injects an identity into a context. Test helper.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// Authenticator is the bearer-token auth gate. Require rejects requests
// without a valid credential; Optional lets anonymous requests through but
// still rejects invalid credentials, so a bad token is never silently
// treated as anonymous.
type Authenticator struct {
	validator TokenValidator
	resolver  identity.Resolver
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   AuditSink
}

// AuthOption configures the Authenticator.
type AuthOption func(*Authenticator)

// WithAuthMetrics sets the metrics collector.
func WithAuthMetrics(m *metrics.Metrics) AuthOption {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// WithAuthAudit sets the sink that records auth failures.
func WithAuthAudit(sink AuditSink) AuthOption {
	return func(a *Authenticator) {
		a.auditor = sink
	}
}

// NewAuthenticator creates the auth gate.
func NewAuthenticator(validator TokenValidator, resolver identity.Resolver, logger *slog.Logger, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		validator: validator,
		resolver:  resolver,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Require enforces a valid bearer token on the wrapped handler.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return a.gate(next, true)
}

// Optional authenticates when a credential is present but admits anonymous
// requests.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.gate(next, false)
}

func (a *Authenticator) gate(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, present := bearerToken(r)
		if !present {
			if !required {
				next.ServeHTTP(w, r)
				return
			}
			a.reject(ctx, w, r, "missing_credential", "Not authenticated")
			return
		}

		claims, err := a.validator.Validate(raw)
		if err != nil {
			// The raw token never reaches the log.
			a.logger.WarnContext(ctx, "rejected invalid bearer token",
				"error", err,
				"request_id", GetRequestID(ctx),
			)
			a.reject(ctx, w, r, "invalid_token", "Invalid authentication credentials")
			return
		}

		subject, err := uuid.Parse(claims.Subject)
		if err != nil {
			a.reject(ctx, w, r, "invalid_subject", "Invalid authentication credentials")
			return
		}

		id, err := a.resolver.Resolve(ctx, subject)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeIdentityNotFound) {
				a.logger.WarnContext(ctx, "token subject has no identity",
					"subject_id", subject,
					"request_id", GetRequestID(ctx),
				)
				a.reject(ctx, w, r, "identity_not_found", "Invalid authentication credentials")
				return
			}
			a.logger.ErrorContext(ctx, "identity resolution failed",
				"subject_id", subject,
				"error", err,
				"request_id", GetRequestID(ctx),
			)
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if a.metrics != nil {
			a.metrics.AuthSuccessTotal.Inc()
		}
		a.logger.DebugContext(ctx, "authenticated request",
			"subject_id", id.ID,
			"request_id", GetRequestID(ctx),
		)

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

// reject writes the 401 and records the failure for the audit trail.
func (a *Authenticator) reject(ctx context.Context, w http.ResponseWriter, r *http.Request, reason, detail string) {
	if a.metrics != nil {
		a.metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	}
	if a.auditor != nil {
		event := audit.Event{
			Action:         audit.ActionAuthFailed,
			ResourceType:   "endpoint",
			ResourceID:     r.URL.Path,
			Outcome:        audit.OutcomeFailure,
			Timestamp:      time.Now().UTC(),
			IPAddress:      GetClientIP(ctx),
			UserAgent:      GetUserAgent(ctx),
			RequestMethod:  r.Method,
			RequestURL:     r.URL.String(),
			ResponseStatus: http.StatusUnauthorized,
			RequestID:      GetRequestID(ctx),
			Details:        map[string]any{"reason": reason},
		}
		if err := a.auditor.Record(ctx, event); err != nil {
			a.logger.ErrorContext(ctx, "failed to audit auth failure",
				"reason", reason,
				"error", err,
			)
		}
	}

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

// writeDetail writes the minimal JSON error body used by the gate.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"detail":"` + detail + `"}`)) //nolint:errcheck // headers already sent
}

// bearerToken extracts the credential from the Authorization header. The
// second return is false when no bearer credential was presented at all;
// an empty credential after the prefix counts as present-but-invalid.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		// An Authorization header in another scheme is not a bearer
		// credential.
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	return raw, true
}
