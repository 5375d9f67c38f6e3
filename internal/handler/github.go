package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/service"
)

const oauthStateCookie = "snipstash_oauth_state"

// GitHubOAuth is the part of auth.GitHubProvider the handler uses.
type GitHubOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubProfile, error)
}

// GitHubHandler runs the GitHub sign-in flow.
//
//   - HandleLogin    → redirect the browser to GitHub's authorization page
//   - HandleCallback → check state, exchange the code, open a session
type GitHubHandler struct {
	github     GitHubOAuth
	auth       *service.AuthService
	logger     *slog.Logger
	production bool
}

func NewGitHubHandler(github GitHubOAuth, authSvc *service.AuthService, logger *slog.Logger, production bool) *GitHubHandler {
	return &GitHubHandler{
		github:     github,
		auth:       authSvc,
		logger:     logger,
		production: production,
	}
}

// HandleLogin redirects to GitHub.
//
// HTTP: GET /auth/github/login
//
// A random state is stored in a short-lived cookie; the callback only
// proceeds when GitHub hands the same value back.
func (h *GitHubHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusSeeOther)
}

// HandleCallback completes the flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *GitHubHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/auth/github",
		MaxAge: -1,
	})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/auth?error=github_denied", http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	res, err := h.auth.SignInWithGitHub(r.Context(), profile)
	if err != nil {
		h.logger.Error("github callback: sign-in failed",
			slog.Int64("githubID", profile.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	auth.SetSessionCookie(w, res.Token, time.Until(res.ExpiresAt), h.production)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
