package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipstash/internal/apperror"
	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/model"
	"github.com/sakif/snipstash/internal/service"
)

// SnippetHandler serves /api/snippets.
//
// For writes to an existing snippet the checks run in a fixed order:
// session (401), snippet exists (404), caller owns it (403), then the body is
// parsed (400) and validated (400). A non-owner therefore always gets 403,
// whatever the payload.
type SnippetHandler struct {
	snippets   *service.SnippetService
	logger     *slog.Logger
	production bool
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger, production bool) *SnippetHandler {
	return &SnippetHandler{
		snippets:   snippets,
		logger:     logger,
		production: production,
	}
}

// HandleList returns snippets as a JSON array, newest first.
//
// HTTP: GET /api/snippets?userId=&language=&tag=
//
// An explicit userId wins over the session; with neither, every snippet is
// listed. The body is an array even on failure.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.SnippetFilter{
		UserID:   strings.TrimSpace(q.Get("userId")),
		Language: strings.TrimSpace(q.Get("language")),
		Tag:      strings.TrimSpace(q.Get("tag")),
	}
	if filter.UserID == "" {
		filter.UserID, _ = auth.AccountIDFromContext(r.Context())
	}

	snippets, err := h.snippets.List(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, []model.Snippet{})
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate saves a new snippet for the signed-in account.
//
// HTTP: POST /api/snippets
// BODY: {"title","code","description?","language?","tags?","userId?"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var in service.SnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeBadBody(w)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), callerID, in)
	if err != nil {
		status, resp := errorResponse(err, !h.production)
		if errors.Is(err, apperror.ErrUpstream) {
			resp.Message = "Unable to create snippet. Please try again later."
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleGet returns one snippet. Reading is public.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, !h.production)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleReplace is PUT /api/snippets/{id}.
func (h *SnippetHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.snippets.Replace)
}

// HandlePatch is PATCH /api/snippets/{id}.
func (h *SnippetHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.snippets.Patch)
}

type applyFunc func(ctx context.Context, existing *model.Snippet, changes service.SnippetChanges) (*model.Snippet, error)

func (h *SnippetHandler) update(w http.ResponseWriter, r *http.Request, apply applyFunc) {
	existing, ok := h.loadOwned(w, r, "update")
	if !ok {
		return
	}

	var changes service.SnippetChanges
	if err := decodeJSON(w, r, &changes); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeBadBody(w)
		return
	}

	updated, err := apply(r.Context(), existing, changes)
	if err != nil {
		writeError(w, err, !h.production)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete removes a snippet and returns it.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwned(w, r, "delete")
	if !ok {
		return
	}

	deleted, err := h.snippets.Delete(r.Context(), existing)
	if err != nil {
		writeError(w, err, !h.production)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

// loadOwned runs the session, existence and ownership checks and writes the
// failure response itself.
func (h *SnippetHandler) loadOwned(w http.ResponseWriter, r *http.Request, action string) (*model.Snippet, bool) {
	callerID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return nil, false
	}

	snippet, err := h.snippets.GetOwned(r.Context(), callerID, chi.URLParam(r, "id"), action)
	if err != nil {
		writeError(w, err, !h.production)
		return nil, false
	}
	return snippet, true
}
