package middleware

import (
	"net/http"
	"strings"

	"github.com/sakif/snipstash/internal/auth"
)

// Page paths the gate knows about.
const (
	PathHome    = "/"
	PathLanding = "/landing"
	PathAuth    = "/auth"
	PathHealth  = "/healthz"
)

// SessionGate decides, for every request, whether it passes or is redirected.
// It runs after auth.LoadSession, so a failed session lookup has already been
// downgraded to "no session" and can only ever lead to a login redirect.
//
// Rules, first match wins:
//
//	/static/*, /favicon*       pass
//	/api/*, /auth/github/*     pass (API handlers answer 401 themselves)
//	/landing, /healthz         pass
//	signed in:  /auth → /, everything else passes
//	signed out: /auth passes, / → /landing, everything else → /auth
//
// Redirects are 303 See Other.
func SessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn := auth.AccountIDFromContext(r.Context())

		if target, redirect := gateDecision(r.URL.Path, signedIn); redirect {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gateDecision returns the redirect target for path, or redirect=false to let
// the request through.
func gateDecision(path string, signedIn bool) (target string, redirect bool) {
	switch {
	case strings.HasPrefix(path, "/static/"), strings.HasPrefix(path, "/favicon"):
		return "", false
	case strings.HasPrefix(path, "/api/"), strings.HasPrefix(path, "/auth/github/"):
		return "", false
	case path == PathLanding, path == PathHealth:
		return "", false
	}

	if signedIn {
		if path == PathAuth {
			return PathHome, true
		}
		return "", false
	}

	switch path {
	case PathAuth:
		return "", false
	case PathHome:
		return PathLanding, true
	default:
		return PathAuth, true
	}
}
