// Package api provides the HTTP API server and handlers for the shop.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smakiapp/smaki-server/internal/config"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	config   *config.Config
	store    store.Store
	services *Services
	storage  *StorageServices
	events   *sse.Manager
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st store.Store, services *Services, storage *StorageServices, events *sse.Manager, logger *slog.Logger) *Server {
	if storage == nil {
		storage = &StorageServices{}
	}
	s := &Server{
		config:   cfg,
		store:    st,
		services: services,
		storage:  storage,
		events:   events,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, s.humaConfig())
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) humaConfig() huma.Config {
	name := "Smaki API"
	if s.config != nil && s.config.Shop.Name != "" {
		name = s.config.Shop.Name + " API"
	}
	humaConfig := huma.DefaultConfig(name, APIVersion)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestContext)
	s.router.Use(accessLog(s.logger))
	s.router.Use(metricsMiddleware)
	s.router.Use(middleware.Recoverer)

	origins := []string{"*"}
	if s.config != nil && len(s.config.Server.CORSOrigins) > 0 {
		origins = s.config.Server.CORSOrigins
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerPublicRoutes()
	s.registerAuthRoutes()
	s.registerFlavorRoutes()
	s.registerPhotoRoutes()
	s.registerSelectionRoutes()
	s.registerDashboardRoutes()

	s.router.Handle("/metrics", promhttp.Handler())

	if s.events != nil {
		s.router.Get("/api/v1/public/stream", sse.NewHandler(s.events, s.logger).ServeHTTP)
		s.router.With(s.requireStaff).Get("/api/v1/stream", sse.NewStaffHandler(s.events, s.logger).ServeHTTP)
	}
}
