// Package server is the composition root: it opens storage, builds the
// services and handlers, mounts routes and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → sqlite.DB (songs, puzzles, signed-in rounds, stats, users)
//	  → memory.RoundStore (guest rounds)
//	  → services → handlers → chi routes
//
// Handlers never touch storage and services never touch HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/heardle/internal/auth"
	"github.com/sakif/heardle/internal/config"
	"github.com/sakif/heardle/internal/handler"
	"github.com/sakif/heardle/internal/metrics"
	"github.com/sakif/heardle/internal/middleware"
	"github.com/sakif/heardle/internal/repository/memory"
	sqliteRepo "github.com/sakif/heardle/internal/repository/sqlite"
	"github.com/sakif/heardle/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish.
const shutdownTimeout = 30 * time.Second

// Server owns the database and the guest round store and closes both on
// shutdown.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	guests  *memory.RoundStore
	metrics *metrics.Metrics

	// baseCtx is the parent of every request context. Cancelling it ends
	// long-lived countdown streams so Shutdown does not wait on them.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// New opens the database at cfg.Database.Path and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		guests: memory.NewRoundStore(memory.Config{
			TTL:           cfg.Game.GuestRoundTTL,
			SweepInterval: memory.DefaultConfig().SweepInterval,
		}, logger),
		metrics:    m,
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}

	if err := s.setupRoutes(); err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts everything.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /metrics                          (when enabled)
//	GET    /auth/discord/login
//	GET    /auth/discord/callback
//	POST   /auth/logout
//	GET    /api/songs, /api/songs/{id}
//	GET    /api/countdown, /api/countdown/stream
//	GET    /api/puzzles/daily[/round|/playback]
//	POST   /api/puzzles/daily/guesses        (rate limited)
//	POST   /api/puzzles/custom               (auth)
//	GET    /api/puzzles/custom/mine          (auth)
//	GET    /api/puzzles/custom/{id}[/round|/playback]
//	POST   /api/puzzles/custom/{id}/guesses  (rate limited)
//	DELETE /api/puzzles/custom/{id}          (auth, creator only)
//	GET    /api/me, /api/stats               (auth)
//	GET    /api/stats/{userId}
//	PUT    /api/admin/daily                  (X-Admin-Key)
//	GET    /api/admin/daily                  (X-Admin-Key)
//	POST   /api/admin/songs                  (X-Admin-Key)
//
// The admin routes are mounted only when an admin key hash is configured.
//
// Middleware order: request id, real IP and panic recovery first, then
// logging and metrics so they see the final status, then CORS.
func (s *Server) setupRoutes() error {
	cfg := s.cfg

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var adminKey *auth.AdminKey
	if cfg.Auth.AdminKeyHash != "" {
		adminKey, err = auth.NewAdminKey(cfg.Auth.AdminKeyHash)
		if err != nil {
			return fmt.Errorf("loading admin key: %w", err)
		}
	} else {
		s.logger.Warn("no admin key configured, the admin API is disabled")
	}

	// Left as a nil interface when sign-in is not configured.
	var discord handler.DiscordAuthenticator
	if cfg.Auth.DiscordEnabled() {
		discord = auth.NewDiscordProvider(cfg.Auth.DiscordClientID, cfg.Auth.DiscordClientSecret, cfg.Auth.DiscordCallbackURL)
	} else {
		s.logger.Warn("Discord OAuth not configured, everyone plays as a guest")
	}

	// === Services ===
	catalogService := service.NewCatalogService(s.db, s.logger)
	puzzleService := service.NewPuzzleService(s.db, s.db, cfg.Game.ResetHourUTC, s.logger)
	roundService := service.NewRoundService(s.db, s.db, s.guests, s.db, s.metrics, s.logger)
	statsService := service.NewStatsService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, s.logger)

	// === Handlers ===
	songs := handler.NewSongHandler(catalogService, s.logger)
	puzzles := handler.NewPuzzleHandler(puzzleService, roundService, handler.RoundOptions{
		ResetHourUTC:    cfg.Game.ResetHourUTC,
		RefetchInterval: cfg.Game.RefetchInterval,
	}, s.logger)
	stats := handler.NewStatsHandler(statsService)
	authHandler := handler.NewAuthHandler(discord, authService, cfg.Server.PublicURL, cfg.Server.SecureCookies, s.logger)
	admin := handler.NewAdminHandler(puzzleService, catalogService, s.logger)
	countdown := handler.NewCountdownHandler(cfg.Game.ResetHourUTC, cfg.Game.CountdownInterval, s.logger)
	health := handler.NewHealthHandler(s.db)

	requireAuth := auth.RequireAuth(tokens)
	limitGuesses := middleware.RateLimit(middleware.NewKeyedRateLimiter(cfg.RateLimit.GuessesPerSecond, cfg.RateLimit.Burst))

	// === Global middleware ===
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Metrics(s.metrics))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.Get("/healthz", health.HandleHealth)
	if s.metrics != nil {
		r.Handle(cfg.Metrics.Path, s.metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Get("/discord/login", authHandler.HandleDiscordLogin)
		r.Get("/discord/callback", authHandler.HandleDiscordCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.ResolvePlayer(tokens, cfg.Server.SecureCookies))

		r.Get("/songs", songs.HandleList)
		r.Get("/songs/{id}", songs.HandleGet)

		r.Get("/countdown", countdown.HandleGet)
		r.Get("/countdown/stream", countdown.HandleStream)

		r.Get("/puzzles/daily", puzzles.HandlePuzzle(puzzles.Daily))
		r.Get("/puzzles/daily/round", puzzles.HandleRound(puzzles.Daily))
		r.Get("/puzzles/daily/playback", puzzles.HandlePlayback(puzzles.Daily))
		r.With(limitGuesses).Post("/puzzles/daily/guesses", puzzles.HandleGuess(puzzles.Daily))

		r.With(requireAuth).Post("/puzzles/custom", puzzles.HandleCreateCustom)
		r.With(requireAuth).Get("/puzzles/custom/mine", puzzles.HandleListMine)
		r.Get("/puzzles/custom/{id}", puzzles.HandlePuzzle(puzzles.Custom))
		r.Get("/puzzles/custom/{id}/round", puzzles.HandleRound(puzzles.Custom))
		r.Get("/puzzles/custom/{id}/playback", puzzles.HandlePlayback(puzzles.Custom))
		r.With(limitGuesses).Post("/puzzles/custom/{id}/guesses", puzzles.HandleGuess(puzzles.Custom))
		r.With(requireAuth).Delete("/puzzles/custom/{id}", puzzles.HandleDeleteCustom)

		r.With(requireAuth).Get("/me", authHandler.HandleMe)
		r.With(requireAuth).Get("/stats", stats.HandleMine)
		r.Get("/stats/{userId}", stats.HandleGet)

		if adminKey == nil {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdminKey(adminKey))
			r.Put("/daily", admin.HandleSetDaily)
			r.Get("/daily", admin.HandleGetDaily)
			r.Post("/songs", admin.HandleAddSong)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully:
//
//  1. End countdown streams and stop accepting connections
//  2. Wait up to shutdownTimeout for in-flight requests
//  3. Stop the guest-round janitor and close the database
func (s *Server) Start() error {
	defer s.db.Close()

	s.guests.Start()
	defer s.guests.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return s.baseCtx },
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("url", s.cfg.Server.PublicURL),
			slog.String("database", s.cfg.Database.Path),
			slog.Int("resetHourUTC", s.cfg.Game.ResetHourUTC),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		s.cancelBase()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		s.cancelBase()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the server's resources without starting it.
func (s *Server) Close() error {
	s.cancelBase()
	return s.db.Close()
}
