package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
)

const accountColumns = `id, email, password_hash, name, github_id, created_at, updated_at`

// CreateAccount inserts a. A duplicate email surfaces as apperror.ErrConflict;
// the store's UNIQUE constraint is the only uniqueness check.
func (db *DB) CreateAccount(ctx context.Context, a *model.Account) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Name, a.GitHubID, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", "email already registered")
		}
		return fmt.Errorf("sqlite: creating account: %w", err)
	}
	return nil
}

func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	return db.getAccount(ctx, "id", id)
}

func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return db.getAccount(ctx, "email", email)
}

func (db *DB) GetAccountByGitHubID(ctx context.Context, githubID int64) (*model.Account, error) {
	return db.getAccount(ctx, "github_id", githubID)
}

// getAccount looks up one account by a fixed column name.
func (db *DB) getAccount(ctx context.Context, column string, value any) (*model.Account, error) {
	var (
		a        model.Account
		githubID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ?`, value,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &githubID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", fmt.Sprint(value))
		}
		return nil, fmt.Errorf("sqlite: getting account by %s: %w", column, err)
	}
	if githubID.Valid {
		a.GitHubID = &githubID.Int64
	}
	return &a, nil
}

// LinkGitHub attaches a GitHub identity to an existing account.
func (db *DB) LinkGitHub(ctx context.Context, accountID string, githubID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET github_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		githubID, accountID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", "github account already linked")
		}
		return fmt.Errorf("sqlite: linking github account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("account", accountID)
	}
	return nil
}
