package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/snipstash/internal/apperror"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "snipstash_session"

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the resolved caller of a request.
type Identity struct {
	AccountID string
	SessionID string
}

// SessionResolver turns a session token into an Identity. It returns an error
// wrapping apperror.ErrUnauthorized when the token names no live session; any
// other error means the lookup itself failed.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*Identity, error)
}

// LoadSession resolves the session cookie, if any, and stores the Identity in
// the request context. It never blocks a request.
//
// A failed lookup (store unreachable, etc.) is logged and the request continues
// as anonymous. Downstream, anonymous means "send to login", so a broken store
// can never grant access.
func LoadSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolver.ResolveSession(r.Context(), cookie.Value)
			switch {
			case err == nil:
				r = r.WithContext(WithIdentity(r.Context(), id))
			case errors.Is(err, apperror.ErrUnauthorized):
				// stale or revoked cookie: anonymous
			default:
				logger.Warn("session resolution failed, treating request as signed out",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession answers 401 unless LoadSession resolved a caller.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AccountIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns (nil, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil && id.AccountID != ""
}

// AccountIDFromContext returns the signed-in account's ID.
//
//	accountID, ok := auth.AccountIDFromContext(r.Context())
//	if !ok {
//	    // anonymous
//	}
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.AccountID, true
}

// SetSessionCookie stores token in an HttpOnly, SameSite=Lax cookie.
// secure should be true in production so the cookie only travels over HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
