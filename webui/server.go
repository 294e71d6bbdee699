package webui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ruserwation/core"
	"ruserwation/reservation"
	"ruserwation/webui/static"
)

// AuthProvider is implemented by auth.Middleware. The interface keeps this
// package free of an import on webui/auth, which itself imports webui.
type AuthProvider interface {
	// Middleware rejects requests without a valid admin session.
	Middleware(next http.Handler) http.Handler
	LoginHandler() http.HandlerFunc
	LogoutHandler() http.HandlerFunc
	// CurrentUser returns the admin behind the request's session cookie.
	CurrentUser(r *http.Request) (core.Username, error)
}

// UpcomingLister is satisfied by *db.ReservationRepository.
type UpcomingLister interface {
	FindByTime(ctx context.Context, from, to time.Time) ([]*reservation.Reservation, error)
}

// ServerConfig configures the Server.
type ServerConfig struct {
	Host string
	Port int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	StaticDir  string
	Poster     string
	Restaurant core.Restaurant

	// DashboardWindow is how far ahead the admin dashboard lists bookings.
	DashboardWindow time.Duration

	// LogSkipPaths are not request-logged.
	LogSkipPaths []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them; the
	// login rate limit keys on this address.
	TrustProxyHeaders bool
}

// DefaultServerConfig returns a ServerConfig with the stock timeouts.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            3030,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		StaticDir:       "./static",
		Poster:          "poster.webp",
		DashboardWindow: 30 * 24 * time.Hour,
		LogSkipPaths:    []string{"/health"},
	}
}

// Deps are the collaborators the server routes to. All are required.
type Deps struct {
	Auth         AuthProvider
	Reservations ReservationSubmitter
	Tokens       TokenIssuer
	Upcoming     UpcomingLister
	// Ping checks the database for /health.
	Ping func(ctx context.Context) error

	// Middlewares run inside request logging, in order. Optional.
	Middlewares []func(http.Handler) http.Handler
}

func (d Deps) validate() error {
	switch {
	case d.Auth == nil:
		return errors.New("webui: Auth is required")
	case d.Reservations == nil:
		return errors.New("webui: Reservations is required")
	case d.Tokens == nil:
		return errors.New("webui: Tokens is required")
	case d.Upcoming == nil:
		return errors.New("webui: Upcoming is required")
	case d.Ping == nil:
		return errors.New("webui: Ping is required")
	}
	return nil
}

// Server is the restaurant's HTTP server.
type Server struct {
	httpServer   *http.Server
	router       chi.Router
	config       ServerConfig
	deps         Deps
	logger       *zap.Logger
	static       *StaticAssetHandler
	reservations *ReservationHandler
	now          core.Clock
}

// NewServer wires routes and middleware.
func NewServer(config ServerConfig, deps Deps, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if config.DashboardWindow <= 0 {
		config.DashboardWindow = DefaultServerConfig().DashboardWindow
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultServerConfig().ShutdownTimeout
	}

	s := &Server{
		router:       chi.NewRouter(),
		config:       config,
		deps:         deps,
		logger:       logger,
		static:       NewStaticAssetHandler(DefaultStaticAssetConfig(config.StaticDir)),
		reservations: NewReservationHandler(deps.Reservations, deps.Tokens, logger.Named("reservations")),
		now:          core.SystemClock,
	}
	s.setupRoutes()

	addr := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("web server created", zap.String("addr", addr))
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.router
	if s.config.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(NewLoggingMiddleware(s.logger.Named("http"), s.config.LogSkipPaths...).Handler)
	r.Use(middleware.Recoverer)
	r.Use(s.deps.Middlewares...)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static", s.static))

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/reserve", s.reservations.Reserve)
		r.Get("/ref-check", s.reservations.RefCheck)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", s.deps.Auth.LoginHandler())
		r.Post("/login", s.deps.Auth.LoginHandler())
		r.Get("/logout", s.deps.Auth.LogoutHandler())
		r.With(s.deps.Auth.Middleware).Get("/", s.handleDashboard)
	})
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// poster returns the configured poster, or the embedded default when the
// configured file is not available.
func (s *Server) poster() string {
	if s.config.Poster != "" && s.static.Exists(s.config.Poster) {
		return s.config.Poster
	}
	return static.DefaultPoster
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	token, err := s.deps.Tokens.Issue()
	if err != nil {
		s.logger.Error("failed to issue ref_check for index page", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := RenderIndexPage(w, IndexPageData{
		Restaurant: s.config.Restaurant,
		Poster:     s.poster(),
		RefCheck:   token,
	}); err != nil {
		s.logger.Error("failed to render index page", zap.Error(err))
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	username, err := s.deps.Auth.CurrentUser(r)
	if err != nil {
		http.Redirect(w, r, "/admin/login", http.StatusFound)
		return
	}

	now := s.now()
	upcoming, err := s.deps.Upcoming.FindByTime(r.Context(), now, now.Add(s.config.DashboardWindow))
	if err != nil {
		s.logger.Error("failed to list upcoming reservations", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := RenderDashboardPage(w, DashboardPageData{
		Username:     username.String(),
		Reservations: upcoming,
	}); err != nil {
		s.logger.Error("failed to render dashboard", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "error", Message: "database unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Start listens until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("web server starting", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	s.logger.Info("web server stopped")
	return nil
}
