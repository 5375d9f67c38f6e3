package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
)

func TestCreateAccount_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "u1", "dup@example.com")

	now := time.Now()
	err := db.CreateAccount(context.Background(), &model.Account{
		ID: "u2", Email: "dup@example.com", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateAccount() error = %v, want ErrConflict", err)
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestAccount(t, db, "u1", "me@example.com")

	found, err := db.GetAccountByEmail(context.Background(), "me@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "hash")
	}
	if found.GitHubID != nil {
		t.Errorf("GitHubID = %v, want nil", *found.GitHubID)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetAccountByID(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccountByID() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetAccountByEmail(ctx, "missing@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccountByEmail() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetAccountByGitHubID(ctx, 42); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccountByGitHubID() error = %v, want ErrNotFound", err)
	}
}

func TestLinkGitHub(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	createTestAccount(t, db, "u1", "a@example.com")
	createTestAccount(t, db, "u2", "b@example.com")

	if err := db.LinkGitHub(ctx, "u1", 1001); err != nil {
		t.Fatalf("LinkGitHub() error = %v", err)
	}

	found, err := db.GetAccountByGitHubID(ctx, 1001)
	if err != nil {
		t.Fatalf("GetAccountByGitHubID() error = %v", err)
	}
	if found.ID != "u1" {
		t.Errorf("ID = %q, want u1", found.ID)
	}
	if found.GitHubID == nil || *found.GitHubID != 1001 {
		t.Errorf("GitHubID = %v, want 1001", found.GitHubID)
	}

	if err := db.LinkGitHub(ctx, "u2", 1001); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("LinkGitHub() same id twice: error = %v, want ErrConflict", err)
	}
	if err := db.LinkGitHub(ctx, "missing", 2002); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("LinkGitHub() unknown account: error = %v, want ErrNotFound", err)
	}
}
