// Package api provides the HTTP server for the wellness service.
// Catalog routes are public; /api/me routes act on the caller's own ledger.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genyouth/wellness/internal/app/checkin"
	"github.com/genyouth/wellness/internal/app/notify"
	"github.com/genyouth/wellness/internal/app/recommend"
	"github.com/genyouth/wellness/internal/app/session"
	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/health"
)

// Version is reported by GET /api/version.
var Version = "0.1.0"

// ResourceDirectory lists crisis resources. Implemented by catalog.Catalog.
type ResourceDirectory interface {
	ResourcesFor(country string, typ domain.ResourceType) []domain.CrisisResource
}

// Server is the wellness HTTP API server.
type Server struct {
	sessions       *session.Manager
	matcher        *recommend.Matcher
	notifications  *notify.Service
	checkins       *checkin.Service
	resources      ResourceDirectory
	health         *health.Checker
	limiter        *RateLimiter
	identity       func(http.Handler) http.Handler
	corsOrigins    []string
	metricsEnabled bool
	now            func() time.Time
}

// NewServer creates a new API server. Identity defaults to the X-User-ID
// header until SetIdentity is called.
func NewServer(sessions *session.Manager, matcher *recommend.Matcher, notifications *notify.Service) *Server {
	return &Server{
		sessions:      sessions,
		matcher:       matcher,
		notifications: notifications,
		identity:      HeaderIdentity("X-User-ID"),
		now:           time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth backs GET /health with the checker's latest results.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetRateLimiter enables per-client rate limiting.
func (s *Server) SetRateLimiter(l *RateLimiter) { s.limiter = l }

// SetIdentity sets the middleware that authenticates /api/me routes.
func (s *Server) SetIdentity(mw func(http.Handler) http.Handler) { s.identity = mw }

// SetCORSOrigins restricts the allowed origins. Empty allows any.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// SetCheckIns mounts the mood check-in routes under /api/me.
func (s *Server) SetCheckIns(c *checkin.Service) { s.checkins = c }

// SetResources serves GET /api/resources from d.
func (s *Server) SetResources(d ResourceDirectory) { s.resources = d }

// SetClock overrides the clock used for the default activity date.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(monitor)
	r.Use(corsMiddleware(s.corsOrigins))
	if s.limiter != nil {
		r.Use(s.limiter.Middleware)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	// Public catalog
	r.Route("/api", func(r chi.Router) {
		r.Get("/content", s.handleContent)
		r.Get("/moods", s.handleMoods)
		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/catalog", s.handleCatalog)
		if s.resources != nil {
			r.Get("/resources", s.handleResources)
		}

		// Caller's own ledger and notifications
		r.Route("/me", func(r chi.Router) {
			r.Use(s.identity)
			r.Get("/progress", s.handleProgress)
			r.Get("/points/history", s.handlePointHistory)
			r.Post("/points", s.handleAwardPoints)
			r.Post("/activities", s.handleLogActivity)
			r.Post("/challenges/rollover", s.handleRollover)
			r.Post("/challenges/{id}/progress", s.handleChallengeProgress)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{id}/shown", s.handleNotificationShown)
			r.Post("/devices", s.handleRegisterDevice)
			if s.checkins != nil {
				r.Get("/moods", s.handleCheckInHistory)
				r.Post("/moods", s.handleCheckIn)
				r.Get("/recommendations", s.handleMyRecommendations)
			}
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return "error"
	}
}
