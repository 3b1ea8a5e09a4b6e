package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/chestlogic/internal/application/analysis"
	appreview "github.com/bryanwahyu/chestlogic/internal/application/review"
	domai "github.com/bryanwahyu/chestlogic/internal/domain/ai"
	"github.com/bryanwahyu/chestlogic/internal/middleware"
)

// Options carries the optional pieces of the router.
type Options struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	Checkers       map[string]middleware.HealthChecker
}

type Router struct {
	analysisSvc *appanalysis.Service
	reviewSvc   *appreview.Service
	views       *Views
	logger      *zap.Logger
}

func NewRouter(analysisSvc *appanalysis.Service, reviewSvc *appreview.Service, opts Options) (http.Handler, error) {
	views, err := NewViews()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{analysisSvc: analysisSvc, reviewSvc: reviewSvc, views: views, logger: logger}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.Metrics)

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/analysis", http.StatusFound)
	})
	mux.Get("/analysis", r.page(r.handleAnalysisForm))
	mux.Post("/analysis", r.page(r.handleAnalysisSubmit))
	mux.Get("/admin", r.page(r.handleAdminForm))
	mux.Post("/admin", r.page(r.handleAdminLogin))
	mux.Post("/admin/records/{id}/feedback", r.page(r.handleAdminFeedback))
	mux.Post("/admin/export", r.page(r.handleAdminExport))

	mux.Route("/v1", func(rt chi.Router) {
		if len(opts.AllowedOrigins) > 0 {
			rt.Use(cors.Handler(cors.Options{
				AllowedOrigins: opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type", adminPasswordHeader},
				MaxAge:         300,
			}))
		}
		rt.Post("/analyses", r.api(r.handleAPIAnalyze))
		rt.Get("/analyses", r.api(r.handleAPIList))
		rt.Put("/analyses/{id}/feedback", r.api(r.handleAPIFeedback))
	})

	return mux, nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// statusFor maps an uncaught error to the status of the error page.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, appanalysis.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// page renders uncaught handler errors as the error view.
func (r *Router) page(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			r.logger.Error("page handler failed",
				zap.String("path", req.URL.Path), zap.Int("status", status), zap.Error(err))
			data := ViewData{Title: "Error", Data: errorPage{Message: err.Error()}}
			if rerr := r.views.Render(w, status, viewError, data); rerr != nil {
				http.Error(w, err.Error(), status)
			}
		}
	}
}

// api writes uncaught handler errors as JSON.
func (r *Router) api(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := statusFor(err)
			r.logger.Error("api handler failed",
				zap.String("path", req.URL.Path), zap.Int("status", status), zap.Error(err))
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}
