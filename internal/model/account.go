package model

import "time"

type Account struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // empty for GitHub-only accounts
	Name         string    `json:"name"      db:"name"`
	GitHubID     *int64    `json:"githubId,omitempty" db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Session is a server-side record backing a signed session token.
// Deleting the row revokes the token even before it expires.
type Session struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
