package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/handler"
	"github.com/sakif/snipstash/internal/repository/sqlite"
	"github.com/sakif/snipstash/internal/service"
)

// testEnv wires real services over an in-memory SQLite store.
type testEnv struct {
	store    *sqlite.DB
	auth     *service.AuthService
	snippets *handler.SnippetHandler
	accounts *handler.AccountHandler
	router   chi.Router
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, production bool) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewTokenService("handler-test-signing-key")
	require.NoError(t, err)

	logger := discardLogger()
	authSvc := service.NewAuthService(store, store, tokens, auth.NewPasswordServiceWithCost(4),
		service.AuthConfig{SessionTTL: time.Hour}, logger)

	env := &testEnv{
		store:    store,
		auth:     authSvc,
		snippets: handler.NewSnippetHandler(service.NewSnippetService(store, logger), logger, production),
		accounts: handler.NewAccountHandler(authSvc, logger, "http://localhost:8080", production),
	}

	r := chi.NewRouter()
	r.Use(auth.LoadSession(authSvc, logger))
	r.Post("/api/register", env.accounts.HandleRegister)
	r.Post("/api/login", env.accounts.HandleLogin)
	r.Post("/api/logout", env.accounts.HandleLogout)
	r.Get("/api/me", env.accounts.HandleMe)
	r.Get("/api/snippets", env.snippets.HandleList)
	r.Post("/api/snippets", env.snippets.HandleCreate)
	r.Get("/api/snippets/{id}", env.snippets.HandleGet)
	r.Put("/api/snippets/{id}", env.snippets.HandleReplace)
	r.Patch("/api/snippets/{id}", env.snippets.HandlePatch)
	r.Delete("/api/snippets/{id}", env.snippets.HandleDelete)
	env.router = r

	return env
}

// register creates an account and returns its ID.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	res, err := e.auth.Register(context.Background(), email, "", "secret123")
	require.NoError(t, err)
	return res.Account.ID
}

// do sends a request as accountID ("" for anonymous) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, accountID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{AccountID: accountID, SessionID: "test"}))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), "body: %s", rr.Body.String())
	return v
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rr).Error
}
