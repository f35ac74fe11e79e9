package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/fnb-console/fnb"
	"github.com/jrsteele09/fnb-console/internal/config"
	"github.com/jrsteele09/fnb-console/server/refreshtokens"
	"github.com/jrsteele09/fnb-console/server/store"
	"github.com/jrsteele09/fnb-console/token"
	"github.com/jrsteele09/fnb-console/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dependencies are the repositories the development backend runs on.
type Dependencies struct {
	Users         users.UserRepo
	RefreshTokens refreshtokens.Repo
	Store         *store.Store // Optional, defaults to one collection per F&B resource
}

// Server is the development backend. It serves the account API (login, refresh,
// logout) and the F&B resource API on separate handlers, as the real services do.
type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	accountMux *http.ServeMux
	fnbMux     *http.ServeMux
	routes     []string
	config     config.Config
	users      users.UserRepo
	tokens     *token.Manager
	refresh    *refreshtokens.Manager
	store      *store.Store
	logger     zerolog.Logger
	nowTime    func() time.Time
	registry   *prometheus.Registry
	metrics    *Metrics
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithNowTime sets the clock used for token issue and expiry checks.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithRegistry sets the registry the backend metrics are registered on and served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

func New(cfg config.Config, deps Dependencies, options ...Option) (*Server, error) {
	if deps.Users == nil || deps.RefreshTokens == nil {
		return nil, fmt.Errorf("[Server New] user and refresh token repos are required")
	}

	s := &Server{
		env:        cfg.GetEnv(),
		accountMux: http.NewServeMux(),
		fnbMux:     http.NewServeMux(),
		config:     cfg,
		users:      deps.Users,
		store:      deps.Store,
		logger:     log.Logger,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.store == nil {
		s.store = store.New(resourceCollections()...)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)

	s.tokens = token.New(token.NewHMACSigner(cfg.GetSigningSecret()),
		token.WithTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithNowFunc(s.nowTime),
	)
	s.refresh = refreshtokens.NewManager(deps.RefreshTokens,
		refreshtokens.WithTokenLength(cfg.GetRefreshTokenLength()),
		refreshtokens.WithExpiry(cfg.GetRefreshTokenExpiry()),
		refreshtokens.WithNowFunc(s.nowTime),
	)

	if err := s.InitialiseSystem(cfg); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// AccountHandler serves login, refresh, logout and the metrics endpoint.
func (s *Server) AccountHandler() http.Handler {
	return ChainMiddleware(s.accountMux.ServeHTTP, s.APIMiddleware()...)
}

// FnBHandler serves the F&B resource collections.
func (s *Server) FnBHandler() http.Handler {
	return ChainMiddleware(s.fnbMux.ServeHTTP, s.APIMiddleware()...)
}

// Metrics returns the backend collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Store exposes the resource store for seeding and inspection.
func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) RegisterAccountRoute(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.accountMux.HandleFunc(pattern, handler)
}

func (s *Server) RegisterFnBRoute(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.fnbMux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Debug().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// resourceCollections names a collection for every F&B resource path.
func resourceCollections() []string {
	return fnb.Names()
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
