package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "caregate/pkg/domain-errors"
)

func TestWriteErrorMapsCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"unauthenticated", dErrors.New(dErrors.CodeUnauthenticated, "Not authenticated"), http.StatusUnauthorized, "Not authenticated"},
		{"invalid credential", dErrors.New(dErrors.CodeInvalidCredential, "Invalid authentication credentials"), http.StatusUnauthorized, "Invalid authentication credentials"},
		{"identity not found", dErrors.New(dErrors.CodeIdentityNotFound, "Invalid authentication credentials"), http.StatusUnauthorized, "Invalid authentication credentials"},
		{"not found", dErrors.New(dErrors.CodeNotFound, "resource not found"), http.StatusNotFound, "resource not found"},
		{"invalid request", dErrors.New(dErrors.CodeInvalidRequest, "limit must be a number"), http.StatusBadRequest, "limit must be a number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if body["detail"] != tc.wantDetail {
				t.Fatalf("expected detail %q, got %q", tc.wantDetail, body["detail"])
			}
		})
	}
}

func TestWriteErrorMasksInternals(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeInternal, "pq: connection refused at 10.0.3.7"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["detail"] != "Internal server error" {
		t.Fatalf("internal detail leaked: %q", body["detail"])
	}
}

func TestWriteErrorUnknownErrorIs500(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("raw infrastructure failure"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", w.Code)
	}
}

func TestWriteErrorSetsChallengeOn401(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "Not authenticated"))

	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate Bearer, got %q", got)
	}
}
