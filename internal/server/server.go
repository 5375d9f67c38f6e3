// Package server is the composition root of SnipStash: it opens the store,
// builds services and handlers, and wires routes and middleware.
//
// DEPENDENCY FLOW:
//
//	config.Config → OpenStore → repository.Store
//	Store → AuthService, SnippetService → handlers → chi router
//
// Everything is assembled in New; nothing below it constructs its own
// dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/snipstash/internal/auth"
	"github.com/sakif/snipstash/internal/config"
	"github.com/sakif/snipstash/internal/handler"
	"github.com/sakif/snipstash/internal/middleware"
	"github.com/sakif/snipstash/internal/repository"
	"github.com/sakif/snipstash/internal/service"
	"github.com/sakif/snipstash/web"
)

// Sign-in and registration budget per client IP.
const (
	authRequestsPerMinute = 10
	authBurst             = 5
)

// Server owns the router, the store and the background scheduler.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	auth    *service.AuthService
	limiter *middleware.RateLimiter
}

// New opens the configured store and builds the server.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds the server on an already opened store. The server takes
// ownership of store and closes it when Start returns.
func NewWithStore(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	var tokens *auth.TokenService
	if cfg.AuthEnabled() {
		var err error
		tokens, err = auth.NewTokenService(cfg.StoreKey)
		if err != nil {
			return nil, fmt.Errorf("SNIPSTASH_STORE_KEY: %w", err)
		}
	} else {
		logger.Warn("SNIPSTASH_STORE_KEY is not set; sign-in and registration are disabled")
	}

	authSvc := service.NewAuthService(store, store, tokens, auth.NewPasswordService(),
		service.AuthConfig{
			SessionTTL:          cfg.SessionTTL,
			RequireConfirmation: cfg.RequireConfirmation,
		}, logger)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		auth:    authSvc,
		limiter: middleware.NewRateLimiter(authRequestsPerMinute, authBurst),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
//	GET    /healthz                store ping
//	GET    /static/*               embedded assets
//	GET    /, /landing, /auth      pages
//	GET    /snippets/{id}          snippet page
//	GET    /auth/github/login      GitHub sign-in (when configured)
//	GET    /auth/github/callback
//	POST   /api/register           rate limited
//	POST   /api/login              rate limited
//	POST   /api/logout
//	GET    /api/me
//	GET    /api/snippets           ?userId=&language=&tag=
//	POST   /api/snippets           session required
//	GET    /api/snippets/{id}
//	PUT    /api/snippets/{id}      session required, owner only
//	PATCH  /api/snippets/{id}      session required, owner only
//	DELETE /api/snippets/{id}      session required, owner only
//
// Middleware order: request ID, real IP (only with TrustProxy), panic
// recovery, access log, session lookup, then the gate. The gate must come
// after LoadSession. Without TrustProxy the rate limiter keys on the socket
// address, so forwarded headers cannot buy a fresh bucket.
func (s *Server) setupRoutes() error {
	r := s.router
	production := s.config.Production

	r.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(auth.LoadSession(s.auth, s.logger))
	r.Use(middleware.SessionGate)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	health := handler.NewHealthHandler(s.store, s.logger)
	r.Get(middleware.PathHealth, health.HandleHealth)

	// === Pages ===
	pages, err := handler.NewPageHandler(web.Templates, s.logger, s.config.GitHubEnabled())
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	r.Get(middleware.PathHome, pages.HandleHome)
	r.Get(middleware.PathLanding, pages.HandleLanding)
	r.Get(middleware.PathAuth, pages.HandleAuth)
	r.Get("/snippets/{id}", pages.HandleSnippet)

	if s.config.GitHubEnabled() {
		gh := handler.NewGitHubHandler(
			auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL),
			s.auth, s.logger, production)
		r.Get("/auth/github/login", gh.HandleLogin)
		r.Get("/auth/github/callback", gh.HandleCallback)
	}

	// === API ===
	snippetHandler := handler.NewSnippetHandler(service.NewSnippetService(s.store, s.logger), s.logger, production)
	accountHandler := handler.NewAccountHandler(s.auth, s.logger, s.config.BaseURL, production)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.With(middleware.RateLimit(s.limiter)).Post("/register", accountHandler.HandleRegister)
		r.With(middleware.RateLimit(s.limiter)).Post("/login", accountHandler.HandleLogin)
		r.Post("/logout", accountHandler.HandleLogout)
		r.Get("/me", accountHandler.HandleMe)

		r.Get("/snippets", snippetHandler.HandleList)
		r.Get("/snippets/{id}", snippetHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleReplace)
			r.Patch("/snippets/{id}", snippetHandler.HandlePatch)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
		})
	})

	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
// stop accepting connections, wait up to 30s for in-flight requests, stop the
// scheduler, close the store.
func (s *Server) Start() error {
	defer s.store.Close()

	scheduler, err := s.newScheduler()
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		// Stop returns a context that is done once running jobs finish.
		<-scheduler.Stop().Done()
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.BaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
