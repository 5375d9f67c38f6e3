// Package service contains the business rules of SnipStash.
//
// Handlers parse HTTP and translate errors; repositories talk SQL. Everything
// in between lives here: validation, defaults, ownership and timestamps.
// Services return apperror values and never know about status codes.
//
//	main.go creates:  Store → Service → Handler
//	At runtime:       Handler calls Service calls Store
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/model"
	"github.com/sakif/snipstash/internal/repository"
)

const (
	MaxTitleLength = 200
	MaxCodeLength  = 100000 // ~100KB of code
)

// SnippetInput is the body of a create request.
type SnippetInput struct {
	Title       string     `json:"title"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	Tags        model.Tags `json:"tags"`
	// UserID is optional; when present it must match the caller.
	UserID string `json:"userId"`
}

// SnippetChanges is the body of a PUT or PATCH. A nil field was not sent.
type SnippetChanges struct {
	Title       *string     `json:"title"`
	Code        *string     `json:"code"`
	Description *string     `json:"description"`
	Language    *string     `json:"language"`
	Tags        *model.Tags `json:"tags"`
}

// empty reports whether no field carries a value. Blank strings count as
// absent, and so does a tags string with no tags in it; an explicit [] counts.
func (c SnippetChanges) empty() bool {
	return isBlank(c.Title) && isBlank(c.Code) && isBlank(c.Description) &&
		isBlank(c.Language) && !tagsSent(c.Tags)
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

// tagsSent is false for a missing field, null, and "" or " , ", which decode
// to a nil list.
func tagsSent(t *model.Tags) bool {
	return t != nil && *t != nil
}

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// List returns snippets matching filter, newest first. The result is never nil.
func (s *SnippetService) List(ctx context.Context, filter model.SnippetFilter) ([]model.Snippet, error) {
	filter.UserID = strings.TrimSpace(filter.UserID)
	filter.Language = strings.TrimSpace(filter.Language)
	filter.Tag = strings.TrimSpace(filter.Tag)

	snippets, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return []model.Snippet{}, apperror.Upstream("Failed to fetch snippets", err)
	}
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return snippets, nil
}

// Get returns a snippet by ID. Reading is public: no ownership check.
func (s *SnippetService) Get(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, snippetNotFound(id)
		}
		s.logger.Error("failed to fetch snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to fetch snippet", err)
	}
	return snippet, nil
}

// GetOwned loads a snippet the caller is about to modify. action names the
// attempted operation ("update", "delete") in the forbidden message.
func (s *SnippetService) GetOwned(ctx context.Context, callerID, id, action string) (*model.Snippet, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	snippet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != callerID {
		s.logger.Warn("ownership check failed",
			slog.String("id", snippet.ID),
			slog.String("callerID", callerID),
			slog.String("action", action),
		)
		return nil, apperror.Forbidden(fmt.Sprintf("You can only %s your own snippets", action))
	}
	return snippet, nil
}

// Create validates and saves a new snippet owned by callerID.
func (s *SnippetService) Create(ctx context.Context, callerID string, in SnippetInput) (*model.Snippet, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	if in.UserID != "" && in.UserID != callerID {
		return nil, apperror.Forbidden("User ID mismatch")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || in.Code == "" {
		return nil, apperror.ValidationFailed("title", "Missing required fields")
	}
	if err := validateLengths(title, in.Code); err != nil {
		return nil, err
	}

	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = model.DefaultLanguage
	}
	tags := in.Tags
	if tags == nil {
		tags = model.Tags{}
	}

	now := s.now().UTC()
	snippet := &model.Snippet{
		ID:          uuid.NewString(),
		Title:       title,
		Code:        in.Code,
		Description: strings.TrimSpace(in.Description),
		Language:    language,
		Tags:        tags,
		UserID:      callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Internal server error", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", callerID),
	)
	return snippet, nil
}

// Replace applies a PUT to an owned snippet. Every sent field replaces the
// stored one, "" included; unsent fields keep their stored value. Code and
// language must be non-empty afterwards.
func (s *SnippetService) Replace(ctx context.Context, existing *model.Snippet, changes SnippetChanges) (*model.Snippet, error) {
	updated := replace(existing, changes)
	if updated.Code == "" {
		return nil, apperror.ValidationFailed("code", "Code is required")
	}
	if updated.Language == "" {
		return nil, apperror.ValidationFailed("language", "Language is required")
	}
	return s.save(ctx, updated)
}

// Patch applies a PATCH to an owned snippet. At least one field must carry a
// value. Applying the same changes twice yields the same record.
func (s *SnippetService) Patch(ctx context.Context, existing *model.Snippet, changes SnippetChanges) (*model.Snippet, error) {
	if changes.empty() {
		return nil, apperror.ValidationFailed("", "No fields to update")
	}
	return s.save(ctx, merge(existing, changes))
}

func (s *SnippetService) save(ctx context.Context, snippet *model.Snippet) (*model.Snippet, error) {
	if snippet.Title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required")
	}
	if err := validateLengths(snippet.Title, snippet.Code); err != nil {
		return nil, err
	}
	snippet.UpdatedAt = s.now().UTC()

	// A NotFound here means the row vanished after the ownership check; the
	// caller already saw it exist, so it is reported as a failed write.
	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to update snippet in database", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

// Delete removes an owned snippet and returns its last-known value.
func (s *SnippetService) Delete(ctx context.Context, existing *model.Snippet) (*model.Snippet, error) {
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		s.logger.Error("failed to delete snippet",
			slog.String("id", existing.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to delete snippet", err)
	}

	s.logger.Info("snippet deleted", slog.String("id", existing.ID))
	return existing, nil
}

// replace overwrites every field that was sent.
func replace(existing *model.Snippet, c SnippetChanges) *model.Snippet {
	out := *existing
	if c.Title != nil {
		out.Title = strings.TrimSpace(*c.Title)
	}
	if c.Code != nil {
		out.Code = *c.Code
	}
	if c.Description != nil {
		out.Description = strings.TrimSpace(*c.Description)
	}
	if c.Language != nil {
		out.Language = strings.TrimSpace(*c.Language)
	}
	if tagsSent(c.Tags) {
		out.Tags = *c.Tags
	}
	return &out
}

// merge overwrites only the fields that carry a value.
func merge(existing *model.Snippet, c SnippetChanges) *model.Snippet {
	out := *existing
	if !isBlank(c.Title) {
		out.Title = strings.TrimSpace(*c.Title)
	}
	if !isBlank(c.Code) {
		out.Code = *c.Code
	}
	if !isBlank(c.Description) {
		out.Description = strings.TrimSpace(*c.Description)
	}
	if !isBlank(c.Language) {
		out.Language = strings.TrimSpace(*c.Language)
	}
	if tagsSent(c.Tags) {
		out.Tags = *c.Tags
	}
	return &out
}

func validateLengths(title, code string) error {
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less", MaxTitleLength))
	}
	if len(code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("Code must be %d characters or less", MaxCodeLength))
	}
	return nil
}

func snippetNotFound(id string) error {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: "Snippet not found",
		Detail:  id,
	}
}
