package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
)

const accountColumns = `id, email, password_hash, name, github_id, created_at, updated_at`

func (db *DB) CreateAccount(ctx context.Context, a *model.Account) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Email, a.PasswordHash, a.Name, a.GitHubID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", "email already registered")
		}
		return fmt.Errorf("postgres: creating account: %w", err)
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

func (db *DB) getAccount(ctx context.Context, column string, value any) (*model.Account, error) {
	var (
		a        model.Account
		githubID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = $1`, value,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &githubID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", fmt.Sprint(value))
		}
		return nil, fmt.Errorf("postgres: getting account by %s: %w", column, err)
	}
	if githubID.Valid {
		a.GitHubID = &githubID.Int64
	}
	return &a, nil
}

func (db *DB) LinkGitHub(ctx context.Context, accountID string, githubID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET github_id = $1, updated_at = now() WHERE id = $2`,
		githubID, accountID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", "github account already linked")
		}
		return fmt.Errorf("postgres: linking github account: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("account", accountID)
	}
	return nil
}
