package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/model"
	"github.com/sakif/snipstash/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxNameLength     = 100
)

// errInvalidCredentials is deliberately the same for an unknown email and a
// wrong password.
var errInvalidCredentials = apperror.Unauthorized("Invalid credentials")

// AuthConfig holds the tunables of AuthService.
type AuthConfig struct {
	SessionTTL          time.Duration
	RequireConfirmation bool
}

// AuthService is the credential store: it creates accounts, verifies
// passwords, and issues, resolves and revokes sessions.
//
// tokens may be nil when no signing key is configured. The server still
// starts; every operation that needs a session then returns
// apperror.ErrMisconfigured (or, for ResolveSession, "no session").
type AuthService struct {
	accounts  repository.AccountRepository
	sessions  repository.SessionRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	cfg       AuthConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		tokens:    tokens,
		passwords: passwords,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	Account *model.Account
	// ConfirmationPending means the account must confirm its email before
	// signing in.
	ConfirmationPending bool
}

// SignInResult bundles the account with a freshly issued session token so the
// handler can set the cookie and respond in one step.
type SignInResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) configured() error {
	if s.tokens == nil {
		return apperror.Misconfigured("Authentication is not configured", "missing session signing key")
	}
	return nil
}

// Register creates an account. Email uniqueness is left to the store, which
// reports a duplicate as apperror.ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*RegisterResult, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Missing email or password")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "Unable to validate email address: invalid format")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Name must be %d characters or less", MaxNameLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	now := s.now().UTC()
	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("service/auth: creating account: %w", err)
	}

	s.logger.Info("account registered", slog.String("accountID", account.ID))

	return &RegisterResult{
		Account:             account,
		ConfirmationPending: s.cfg.RequireConfirmation,
	}, nil
}

// SignIn verifies email and password and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Missing email or password")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}
	if account.PasswordHash == "" {
		// GitHub-only account
		return nil, errInvalidCredentials
	}
	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.openSession(ctx, account)
}

// SignInWithGitHub finds the account for a GitHub profile, linking by email or
// creating a password-less account on first sign-in, and opens a session.
func (s *AuthService) SignInWithGitHub(ctx context.Context, profile *auth.GitHubProfile) (*SignInResult, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("service/auth: GitHub profile must not be nil")
	}

	account, err := s.accounts.GetAccountByGitHubID(ctx, profile.ID)
	if err == nil {
		return s.openSession(ctx, account)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up github account %d: %w", profile.ID, err)
	}

	email := normalizeEmail(profile.Email)
	account, err = s.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.accounts.LinkGitHub(ctx, account.ID, profile.ID); err != nil {
			return nil, fmt.Errorf("service/auth: linking github account: %w", err)
		}
		account.GitHubID = &profile.ID
		s.logger.Info("github account linked", slog.String("accountID", account.ID))

	case errors.Is(err, apperror.ErrNotFound):
		name := profile.Name
		if name == "" {
			name = profile.Login
		}
		now := s.now().UTC()
		ghID := profile.ID
		account = &model.Account{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			GitHubID:  &ghID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.accounts.CreateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("service/auth: creating github account: %w", err)
		}
		s.logger.Info("account registered via GitHub", slog.String("accountID", account.ID))

	default:
		return nil, fmt.Errorf("service/auth: looking up account by email: %w", err)
	}

	return s.openSession(ctx, account)
}

func (s *AuthService) openSession(ctx context.Context, account *model.Account) (*SignInResult, error) {
	now := s.now().UTC()
	session := &model.Session{
		ID:        xid.New().String(),
		AccountID: account.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/auth: creating session: %w", err)
	}

	token, err := s.tokens.Generate(account.ID, session.ID, s.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("session opened",
		slog.String("accountID", account.ID),
		slog.String("sessionID", session.ID),
	)

	return &SignInResult{Account: account, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// ResolveSession implements auth.SessionResolver.
//
// Any reason the token does not name a live session (bad signature, expired,
// revoked, account mismatch) is reported as apperror.ErrUnauthorized. Only a
// failing store lookup returns a different error.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*auth.Identity, error) {
	if s.tokens == nil {
		return nil, apperror.Unauthorized("sign-in is disabled")
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperror.Unauthorized(err.Error())
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("session revoked")
		}
		return nil, fmt.Errorf("service/auth: loading session: %w", err)
	}
	if session.AccountID != claims.AccountID {
		return nil, apperror.Unauthorized("session does not belong to token subject")
	}
	if session.Expired(s.now()) {
		return nil, apperror.Unauthorized("session expired")
	}

	return &auth.Identity{AccountID: session.AccountID, SessionID: session.ID}, nil
}

// SignOut revokes a session. Revoking an unknown session succeeds.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("service/auth: deleting session: %w", err)
	}
	s.logger.Info("session closed", slog.String("sessionID", sessionID))
	return nil
}

func (s *AuthService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if id == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching account %s: %w", id, err)
	}
	return account, nil
}

// PruneSessions deletes expired sessions. Run periodically by the scheduler.
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("service/auth: pruning sessions: %w", err)
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
