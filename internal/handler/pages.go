// Package handler contains the HTTP handlers of SnipStash: JSON endpoints under
// /api, the GitHub sign-in flow and the server-rendered pages.
//
// Handlers parse requests, call a service and write the response. Business
// rules stay in internal/service.
package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/snipstash/internal/auth"
)

// Page names. Each is rendered from templates/base.html plus templates/<name>.html.
const (
	PageLanding = "landing"
	PageAuth    = "auth"
	PageHome    = "home"
	PageSnippet = "snippet"
)

// PageHandler renders the HTML pages. Templates are parsed once at startup.
//
// Every page defines {{define "content"}}, so each one gets its own template
// set composed with base.html; parsing them together would let the last
// "content" win.
type PageHandler struct {
	pages         map[string]*template.Template
	logger        *slog.Logger
	githubEnabled bool
}

func NewPageHandler(templates fs.FS, logger *slog.Logger, githubEnabled bool) (*PageHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageLanding, PageAuth, PageHome, PageSnippet} {
		tmpl, err := template.ParseFS(templates, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &PageHandler{
		pages:         pages,
		logger:        logger,
		githubEnabled: githubEnabled,
	}, nil
}

type pageData struct {
	Title         string
	SignedIn      bool
	AccountID     string
	SnippetID     string
	GitHubEnabled bool
	Error         string
}

func (h *PageHandler) data(r *http.Request, title string) pageData {
	accountID, signedIn := auth.AccountIDFromContext(r.Context())
	return pageData{
		Title:         title,
		SignedIn:      signedIn,
		AccountID:     accountID,
		GitHubEnabled: h.githubEnabled,
	}
}

// HandleLanding serves GET /landing.
func (h *PageHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	h.render(w, PageLanding, h.data(r, "SnipStash | save and share code snippets"))
}

// HandleAuth serves GET /auth, the sign-in and register forms.
func (h *PageHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	d := h.data(r, "Sign in | SnipStash")
	if r.URL.Query().Get("error") == "github_denied" {
		d.Error = "GitHub sign-in was cancelled"
	}
	h.render(w, PageAuth, d)
}

// HandleHome serves GET /, the signed-in account's snippets.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, PageHome, h.data(r, "My snippets | SnipStash"))
}

// HandleSnippet serves GET /snippets/{id}. The page loads the record itself
// from /api/snippets/{id}.
func (h *PageHandler) HandleSnippet(w http.ResponseWriter, r *http.Request) {
	d := h.data(r, "Snippet | SnipStash")
	d.SnippetID = chi.URLParam(r, "id")
	h.render(w, PageSnippet, d)
}

func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[name].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
