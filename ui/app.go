package ui

import (
	"net/http"
	"time"

	"linhypo/app"
	"linhypo/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// App serves the regression HTTP API
type App struct {
	router  *chi.Mux
	service *app.RegressionService
	logger  *internal.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port string
}

// NewApp creates the API application
func NewApp(service *app.RegressionService, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// Handler returns the routed HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Server builds an http.Server for cfg
func (a *App) Server(cfg Config) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Route("/api", func(r chi.Router) {
		r.Post("/regressions", a.handleCreateRegression)
		r.Get("/regressions", a.handleListRegressions)
		r.Get("/regressions/{id}", a.handleGetRegression)
		r.Get("/regressions/{id}/report", a.handleRegressionReport)
		r.Post("/simulations", a.handleSimulation)
	})
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.With("request_id", middleware.GetReqID(r.Context())).
			Info("%s %s -> %d in %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
