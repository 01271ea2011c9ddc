package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/msomdec/skill-match/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends {"error": message, "code": code}.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// writeMessage sends {"message": message}.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// readJSON decodes the request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps domain errors to a status and code. Anything
// unexpected is logged with op and answered with a generic message.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Validation", err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "DuplicateEmail", "Email already exists.")
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeError(w, http.StatusBadRequest, "DuplicateUsername", "Username already exists.")
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusBadRequest, "InvalidOrExpiredCode", "Invalid or expired code.")
	case errors.Is(err, domain.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "AlreadyVerified", "Email already verified.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "InvalidCredentials", "Invalid email or password.")
	case errors.Is(err, domain.ErrNotVerified):
		writeError(w, http.StatusForbidden, "NotVerified", "Please verify your email.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated.")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", "You are not authorized to modify this resource.")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", "Not found.")
	case errors.Is(err, domain.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "TooManyRequests", "Too many requests, try again later.")
	case errors.Is(err, domain.ErrEmailNotConfigured):
		writeError(w, http.StatusInternalServerError, "EmailNotConfigured", "Email service is not configured.")
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal", "An unexpected error occurred. Please try again.")
	}
}
