// Package httputil centralizes JSON response writing and domain error
// translation for the HTTP layer.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "caregate/pkg/domain-errors"
)

// internalDetail is the only body a client ever sees for a 5xx; internals
// stay in the logs.
const internalDetail = "Internal server error"

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so encoding
	// errors are ignored; headers are already sent.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates transport-agnostic domain errors into HTTP
// responses. Authentication failures carry the WWW-Authenticate challenge;
// anything unrecognized collapses to a masked 500.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := CodeToStatus(domainErr.Code)
		if status == http.StatusInternalServerError {
			WriteJSON(w, status, map[string]string{"detail": internalDetail})
			return
		}
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		WriteJSON(w, status, map[string]string{"detail": domainErr.Message})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{"detail": internalDetail})
}

// CodeToStatus maps domain error codes to HTTP status codes.
func CodeToStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthenticated, dErrors.CodeInvalidCredential, dErrors.CodeIdentityNotFound:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
