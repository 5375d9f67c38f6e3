package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/service"
)

// AccountHandler serves registration, email/password sign-in, sign-out and
// the current-account endpoint.
type AccountHandler struct {
	auth       *service.AuthService
	logger     *slog.Logger
	baseURL    string
	production bool
}

func NewAccountHandler(authSvc *service.AuthService, logger *slog.Logger, baseURL string, production bool) *AccountHandler {
	return &AccountHandler{
		auth:       authSvc,
		logger:     logger,
		baseURL:    baseURL,
		production: production,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

type accountSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
// BODY: {"email","password","name?"}
//
// A duplicate email is a 400 here, not a 409: the form shows it like any other
// input problem.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		status, resp := errorResponse(err, !h.production)
		switch {
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrMisconfigured):
			h.logger.Error("registration unavailable",
				slog.String("store_key", "missing"),
				slog.String("error", err.Error()),
			)
		case status == http.StatusInternalServerError:
			h.logger.Error("registration failed", slog.String("error", err.Error()))
			resp = ErrorResponse{
				Error:   "Internal error",
				Code:    resp.Code,
				Message: "Registration failed. Please try again later.",
				Details: resp.Details,
			}
		}
		writeJSON(w, status, resp)
		return
	}

	message := "Registration successful"
	if res.ConfirmationPending {
		message = "Registration successful. Please check your email to confirm your account."
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"user":    accountSummary{ID: res.Account.ID, Email: res.Account.Email},
	})
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /api/login
// BODY: {"email","password","callbackUrl?"}
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w)
		return
	}

	res, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, apperror.ErrUnauthorized) && !errors.Is(err, apperror.ErrValidation) {
			h.logger.Error("sign-in failed", slog.String("error", err.Error()))
		}
		writeError(w, err, !h.production)
		return
	}

	auth.SetSessionCookie(w, res.Token, time.Until(res.ExpiresAt), h.production)

	body := map[string]any{
		"user": accountSummary{ID: res.Account.ID, Email: res.Account.Email, Name: res.Account.Name},
	}
	if req.CallbackURL != "" {
		body["redirect"] = auth.SafeRedirect(req.CallbackURL, h.baseURL, h.production)
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleLogout revokes the current session, if any, and clears the cookie.
//
// HTTP: POST /api/logout
//
// The cookie is cleared even when revoking fails, so the browser is signed out
// either way.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.production)

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		if err := h.auth.SignOut(r.Context(), id.SessionID); err != nil {
			h.logger.Error("sign-out failed",
				slog.String("sessionID", id.SessionID),
				slog.String("error", err.Error()),
			)
			writeError(w, err, !h.production)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}

// HandleMe returns the signed-in account.
//
// HTTP: GET /api/me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	account, err := h.auth.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// session outlived its account
			writeUnauthorized(w)
			return
		}
		writeError(w, err, !h.production)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
