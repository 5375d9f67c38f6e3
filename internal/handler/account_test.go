package handler_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/handler"
	"github.com/sakif/snipstash/internal/repository/sqlite"
	"github.com/sakif/snipstash/internal/service"
)

type authResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	User     struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAccountHandler_Register(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodPost, "/api/register", "", `{"email":"Ada@Example.com","password":"secret123","name":"Ada"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[authResponse](t, rr)
	assert.Equal(t, "Registration successful", res.Message)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEmpty(t, res.User.ID)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing password", `{"email":"x@example.com"}`, "Missing email or password"},
		{"missing email", `{"password":"secret123"}`, "Missing email or password"},
		{"duplicate email", `{"email":"ada@example.com","password":"secret123"}`, "account: email already registered"},
		{"malformed body", `{"email":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantError, errorOf(t, rr))
		})
	}
}

func TestAccountHandler_Register_Misconfigured(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	authSvc := service.NewAuthService(store, store, nil, auth.NewPasswordServiceWithCost(4),
		service.AuthConfig{SessionTTL: time.Hour}, logger)

	for _, production := range []bool{false, true} {
		logs.Reset()
		h := handler.NewAccountHandler(authSvc, logger, "http://localhost:8080", production)
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			bytes.NewBufferString(`{"email":"a@example.com","password":"secret123"}`))
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		resp := decode[handler.ErrorResponse](t, rr)
		assert.Equal(t, "Server configuration error", resp.Error)
		assert.NotEmpty(t, resp.Message)
		assert.Equal(t, !production, resp.Details != "", "details only outside production")
		assert.Contains(t, logs.String(), "level=ERROR")
		assert.Contains(t, logs.String(), "store_key=missing")
	}
}

func TestAccountHandler_Login(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "ada@example.com")

	t.Run("wrong password", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"nope-nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", errorOf(t, rr))
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/login", "", `{"email":"eve@example.com","password":"secret123"}`)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", errorOf(t, rr))
	})

	t.Run("success sets cookie and sanitizes callback", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/api/login", "",
			`{"email":"ada@example.com","password":"secret123","callbackUrl":"/api/auth/signin"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		res := decode[authResponse](t, rr)
		assert.Equal(t, "ada@example.com", res.User.Email)
		assert.Equal(t, "http://localhost:8080", res.Redirect)

		c := sessionCookie(rr)
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)
		assert.Greater(t, c.MaxAge, 0)
	})
}

func TestAccountHandler_MeAndLogout(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "ada@example.com")

	rr := env.do(t, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	login := env.do(t, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(login)
	require.NotNil(t, cookie)

	withCookie := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		return rr
	}

	rr = withCookie(http.MethodGet, "/api/me")
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), `"email":"ada@example.com"`)
	assert.NotContains(t, string(body), "password")

	rr = withCookie(http.MethodPost, "/api/logout")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Signed out"}`, rr.Body.String())
	if c := sessionCookie(rr); assert.NotNil(t, c) {
		assert.Equal(t, -1, c.MaxAge)
	}

	// the old cookie no longer resolves: the session row is gone
	rr = withCookie(http.MethodGet, "/api/me")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
