package postgres

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
)

func setupMock(t *testing.T) (*DB, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewFromConn(conn), mock, func() { conn.Close() }
}

var snippetCols = []string{"id", "title", "code", "description", "language", "tags", "user_id", "created_at", "updated_at"}

func TestCreateSnippet(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	s := &model.Snippet{
		ID: "s1", Title: "t", Code: "c", Language: "text",
		Tags: model.Tags{"a", "b"}, UserID: "u1", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO snippets`)).
		WithArgs("s1", "t", "c", "", "text", pq.Array([]string{"a", "b"}), "u1", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := db.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSnippet_ScansTagsArray(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM snippets WHERE id = $1`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(snippetCols).
			AddRow("s1", "t", "c", "", "go", "{web,cli}", "u1", now, now))

	s, err := db.GetByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(s.Tags, model.Tags{"web", "cli"}) {
		t.Errorf("Tags = %#v, want [web cli]", s.Tags)
	}
	if s.Language != "go" {
		t.Errorf("Language = %q, want go", s.Language)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSnippet_NotFound(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM snippets WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(snippetCols))

	_, err := db.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListSnippets_BuildsFilter(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM snippets WHERE user_id = $1 AND language = $2 AND $3 = ANY(tags) ORDER BY created_at DESC, id DESC`)).
		WithArgs("u1", "go", "web").
		WillReturnRows(sqlmock.NewRows(snippetCols))

	got, err := db.List(context.Background(), model.SnippetFilter{UserID: "u1", Language: "go", Tag: "web"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListSnippets_Error(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM snippets ORDER BY`)).
		WillReturnError(errors.New("connection reset"))

	if _, err := db.List(context.Background(), model.SnippetFilter{}); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestUpdateSnippet_NoRowsIsNotFound(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE snippets`)).
		WithArgs("t", "c", "", "text", sqlmock.AnyArg(), sqlmock.AnyArg(), "s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.Update(context.Background(), &model.Snippet{ID: "s1", Title: "t", Code: "c", Language: "text"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteSnippet(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM snippets WHERE id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := db.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateAccount_UniqueViolationIsConflict(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := db.CreateAccount(context.Background(), &model.Account{ID: "u1", Email: "a@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestCreateAccount_OtherErrorIsWrapped(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(errors.New("connection refused"))

	err := db.CreateAccount(context.Background(), &model.Account{ID: "u1", Email: "a@example.com"})
	if err == nil || errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want a plain wrapped error", err)
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE email = $1`)).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "github_id", "created_at", "updated_at"}).
			AddRow("u1", "a@example.com", "hash", "Ann", int64(7), now, now))

	a, err := db.GetAccountByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID != "u1" || a.PasswordHash != "hash" {
		t.Errorf("account = %+v", a)
	}
	if a.GitHubID == nil || *a.GitHubID != 7 {
		t.Errorf("GitHubID = %v, want 7", a.GitHubID)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE expires_at <= $1`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := db.DeleteExpiredSessions(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE id = $1`)).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "expires_at", "created_at"}))

	if _, err := db.GetSession(context.Background(), "gone"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
