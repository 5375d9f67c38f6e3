// Package repository defines the storage interfaces used by the service layer.
//
// Two implementations live in subpackages: postgres (production, lib/pq) and
// sqlite (local development and tests, modernc.org/sqlite). Both translate
// driver errors into apperror kinds: a missing row becomes apperror.ErrNotFound
// and a unique violation becomes apperror.ErrConflict.
package repository

import (
	"context"
	"time"

	"github.com/sakif/snipstash/internal/model"
)

// SnippetRepository is the record store for snippets.
//
// It does no ownership checks; callers decide who may mutate what.
type SnippetRepository interface {
	// Create inserts s as given. The caller assigns ID and timestamps.
	Create(ctx context.Context, s *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	// List returns matching snippets newest first. Never returns a nil slice on success.
	List(ctx context.Context, f model.SnippetFilter) ([]model.Snippet, error)
	// Update writes every mutable column of s. Returns NotFound if no row matched.
	Update(ctx context.Context, s *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

// AccountRepository stores accounts. Email uniqueness is enforced by the store.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetAccountByGitHubID(ctx context.Context, githubID int64) (*model.Account, error)
	LinkGitHub(ctx context.Context, accountID string, githubID int64) error
}

// SessionRepository stores the server side of session tokens.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// DeleteExpiredSessions removes sessions that expired before now and
	// reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles every repository plus lifecycle methods. It is what the
// composition root opens from the configured store URL.
type Store interface {
	SnippetRepository
	AccountRepository
	SessionRepository
	Ping(ctx context.Context) error
	Close() error
}
