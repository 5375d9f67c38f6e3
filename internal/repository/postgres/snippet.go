package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
)

const snippetColumns = `id, title, code, description, language, tags, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s    model.Snippet
		tags []string
	)
	if err := row.Scan(
		&s.ID, &s.Title, &s.Code, &s.Description, &s.Language,
		pq.Array(&tags), &s.UserID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Tags = tags
	return &s, nil
}

func tagsArg(tags model.Tags) any {
	if tags == nil {
		tags = model.Tags{}
	}
	return pq.Array([]string(tags))
}

func (db *DB) Create(ctx context.Context, s *model.Snippet) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Title, s.Code, s.Description, s.Language,
		tagsArg(s.Tags), s.UserID, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = $1`, id)

	s, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("postgres: getting snippet %s: %w", id, err)
	}
	return s, nil
}

// List returns snippets matching f, newest first.
func (db *DB) List(ctx context.Context, f model.SnippetFilter) ([]model.Snippet, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Language != "" {
		add("language = $%d", f.Language)
	}
	if f.Tag != "" {
		add("$%d = ANY(tags)", f.Tag)
	}

	query := `SELECT ` + snippetColumns + ` FROM snippets`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating snippets: %w", err)
	}
	return snippets, nil
}

func (db *DB) Update(ctx context.Context, s *model.Snippet) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = $1, code = $2, description = $3, language = $4, tags = $5, updated_at = $6
		 WHERE id = $7`,
		s.Title, s.Code, s.Description, s.Language, tagsArg(s.Tags), s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating snippet %s: %w", s.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", s.ID)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting snippet %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}
