package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"caregate/internal/audit"
	"caregate/internal/identity"
	"caregate/internal/token"
	dErrors "caregate/pkg/domain-errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeResolver struct {
	identities map[uuid.UUID]*identity.Identity
}

func (r *fakeResolver) Resolve(_ context.Context, subject uuid.UUID) (*identity.Identity, error) {
	if id, ok := r.identities[subject]; ok {
		return id, nil
	}
	return nil, dErrors.New(dErrors.CodeIdentityNotFound, "subject not found")
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func authFixture(t *testing.T) (*token.Service, *Authenticator, uuid.UUID, *recordingSink) {
	t.Helper()
	svc := token.NewService("test-signing-key", "caregate")
	userID := uuid.New()
	resolver := &fakeResolver{identities: map[uuid.UUID]*identity.Identity{
		userID: {ID: userID, Email: "clinician@example.com", Role: "user"},
	}}
	sink := &recordingSink{}
	auth := NewAuthenticator(svc, resolver, testLogger, WithAuthAudit(sink))
	return svc, auth, userID, sink
}

// echoIdentity reports whether an identity reached the handler.
func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetIdentity(r.Context())
		resp := map[string]any{"user_id": nil}
		if id != nil {
			resp["user_id"] = id.ID.String()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func TestRequireAuthValidToken(t *testing.T) {
	svc, auth, userID, _ := authFixture(t)
	signed, err := svc.Generate(userID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	auth.Require(echoIdentity()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
}

func TestRequireAuthMissingCredential(t *testing.T) {
	_, auth, _, sink := authFixture(t)

	rec := httptest.NewRecorder()
	auth.Require(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/secure", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())

	require.Len(t, sink.events, 1)
	assert.Equal(t, audit.ActionAuthFailed, sink.events[0].Action)
	assert.Equal(t, audit.OutcomeFailure, sink.events[0].Outcome)
	assert.Nil(t, sink.events[0].ActorID)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	svc, auth, userID, _ := authFixture(t)
	// Token signed 31 minutes ago with a 30 minute lifetime.
	signed, err := svc.Generate(userID, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	auth.Require(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid authentication credentials"}`, rec.Body.String())
}

func TestRequireAuthMalformedToken(t *testing.T) {
	_, auth, _, _ := authFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/secure", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	auth.Require(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthUnknownSubject(t *testing.T) {
	svc, auth, _, _ := authFixture(t)
	signed, err := svc.Generate(uuid.New(), time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/secure", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	auth.Require(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthAnonymous(t *testing.T) {
	_, auth, _, sink := authFixture(t)

	rec := httptest.NewRecorder()
	auth.Optional(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["user_id"])
	assert.Empty(t, sink.events)
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	// A presented-but-invalid credential is rejected, never downgraded to
	// anonymous.
	_, auth, _, _ := authFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	auth.Optional(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthValidToken(t *testing.T) {
	svc, auth, userID, _ := authFixture(t)
	signed, err := svc.Generate(userID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	auth.Optional(echoIdentity()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["user_id"])
}

func TestNonBearerSchemeTreatedAsAbsent(t *testing.T) {
	_, auth, _, _ := authFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	auth.Optional(echoIdentity()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
