package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every failure through writeError.
//
// ERROR FORMAT:
//   {"error": "Snippet not found", "code": "not_found"}
//
// "error" is the human-readable message the UI shows as-is; "code" is the
// machine-readable kind. Store failures additionally carry "details" with
// the raw cause, but only outside production: driver errors can contain SQL
// and hostnames.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snipstash/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Snippet code is limited well below this.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; anything after is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// decodeJSON reads a single JSON value from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	// trailing garbage after the object is a malformed body too
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func writeBadBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: "Invalid request body",
		Code:  "validation_error",
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
}

// errorResponse maps a domain error to a status code and body.
//
//	ErrValidation    → 400
//	ErrUnauthorized  → 401
//	ErrForbidden     → 403
//	ErrNotFound      → 404
//	ErrConflict      → 409
//	ErrUpstream      → 500, details when showDetails
//	ErrMisconfigured → 500, details when showDetails
//	anything else    → 500
func errorResponse(err error, showDetails bool) (int, ErrorResponse) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		resp := ErrorResponse{Error: "Internal server error", Code: "internal_error"}
		if showDetails {
			resp.Details = err.Error()
		}
		return http.StatusInternalServerError, resp
	}

	resp := ErrorResponse{Error: appErr.Message}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, resp.Code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, resp.Code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, resp.Code = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, resp.Code = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrMisconfigured):
		resp = ErrorResponse{
			Error:   "Server configuration error",
			Code:    "misconfigured",
			Message: appErr.Message,
		}
		if showDetails {
			resp.Details = appErr.Detail
		}
	default:
		resp.Code = "upstream_error"
		if showDetails {
			resp.Details = appErr.Detail
		}
	}
	return status, resp
}

// writeError maps err with errorResponse and sends it.
func writeError(w http.ResponseWriter, err error, showDetails bool) {
	status, resp := errorResponse(err, showDetails)
	writeJSON(w, status, resp)
}
