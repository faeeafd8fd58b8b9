// Package api provides the HTTP API server and handlers for DocShelf.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docshelf/docshelf-server/internal/config"
	domainerrors "github.com/docshelf/docshelf-server/internal/errors"
	"github.com/docshelf/docshelf-server/internal/http/response"
	"github.com/docshelf/docshelf-server/internal/search"
	"github.com/docshelf/docshelf-server/internal/service"
	"github.com/docshelf/docshelf-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Services groups the services the handlers call.
type Services struct {
	Auth      *service.AuthService
	Users     *service.UserService
	Documents *service.DocumentService
}

// Options tunes the transport.
type Options struct {
	// MaxUploadSize caps multipart upload bodies in bytes.
	MaxUploadSize int64
	// CORSAllowedOrigins is passed to the CORS middleware.
	CORSAllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	index    *search.Index
	services Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	maxUploadSize int64
	corsOrigins   []string

	bearer guardChain
	basic  guardChain
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, index *search.Index, services Services, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = config.DefaultMaxUploadSize
	}
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}

	s := &Server{
		store:         st,
		index:         index,
		services:      services,
		router:        chi.NewRouter(),
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		corsOrigins:   opts.CORSAllowedOrigins,
		bearer: guardChain{
			guards:    []Guard{bearerGuard(services.Auth)},
			challenge: bearerChallenge,
		},
		basic: guardChain{
			guards:    []Guard{basicGuard(services.Auth)},
			challenge: basicChallenge,
		},
	}

	// Middleware must be in place before humachi adds its docs routes.
	s.setupMiddleware()
	s.setupAPI()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(middleware.Compress(5))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, domainerrors.NotFound("route not found"), s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, response.ErrorBody{
			Code:    string(domainerrors.KindNotFound),
			Message: "method not allowed",
		}, s.logger)
	})
}

// setupAPI creates the huma API on top of the router.
func (s *Server) setupAPI() {
	cfg := huma.DefaultConfig("DocShelf API", Version)
	// Drop the $schema link transformer so bodies keep their documented shape.
	cfg.CreateHooks = nil
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:   "http",
			Scheme: "bearer",
		},
		"basic": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	s.api = humachi.New(s.router, cfg)
	RegisterErrorHandler(s.logger)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerDocumentRoutes()
	s.registerFileRoutes()
}

// bearerSecurity marks an operation as requiring a bearer token.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// basicSecurity marks an operation as requiring basic credentials.
var basicSecurity = []map[string][]string{{"basic": {}}}
