package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sakif/snipstash/internal/apperror"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", apperror.ValidationFailed("title", "Missing required fields"), http.StatusBadRequest, "Missing required fields"},
		{"unauthorized", apperror.Unauthorized("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
		{"forbidden", apperror.Forbidden("User ID mismatch"), http.StatusForbidden, "User ID mismatch"},
		{"not found", apperror.NotFound("snippet", "x"), http.StatusNotFound, "snippet not found with id x"},
		{"conflict", apperror.Conflict("account", "email already registered"), http.StatusConflict, "account: email already registered"},
		{"wrapped", fmt.Errorf("service: %w", apperror.Forbidden("nope")), http.StatusForbidden, "nope"},
		{"upstream", apperror.Upstream("Failed to delete snippet", errors.New("disk I/O error")), http.StatusInternalServerError, "Failed to delete snippet"},
		{"misconfigured", apperror.Misconfigured("Authentication is not configured", "missing key"), http.StatusInternalServerError, "Server configuration error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := errorResponse(tt.err, false)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestErrorResponse_DetailsOnlyOutsideProduction(t *testing.T) {
	err := apperror.Upstream("Failed to update snippet in database", errors.New("pq: relation \"snippets\" does not exist"))

	_, dev := errorResponse(err, true)
	if dev.Details == "" {
		t.Error("development response should carry details")
	}

	_, prod := errorResponse(err, false)
	if prod.Details != "" {
		t.Errorf("production response leaked details: %q", prod.Details)
	}

	_, unknown := errorResponse(errors.New("raw driver error"), false)
	if unknown.Details != "" {
		t.Errorf("unknown error leaked details: %q", unknown.Details)
	}
}
