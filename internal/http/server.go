// Package http exposes the tracker as a JSON API. Rendering, login and
// charting live in external clients; this layer only does CRUD, export,
// import and the dashboard aggregates.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kiguca/internal/analytics"
	"kiguca/internal/auth"
	"kiguca/internal/cache"
	"kiguca/internal/core"
	"kiguca/internal/events"
	"kiguca/internal/log"
	"kiguca/internal/storage"
)

type Server struct {
	http.Server

	engine  storage.Engine
	metrics *analytics.Service
	bus     *events.Bus
	logger  *log.Logger

	rateLimiter *rateLimiter

	// Dashboard responses cached per owner and day, dropped wholesale on any
	// data change. Recomputing is cheap enough that precision is not worth it.
	dashboardCache *cache.LRUCache[*analytics.Dashboard]
	cacheManager   *cache.Manager
	unsubscribe    func()

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, engine storage.Engine, metrics *analytics.Service, bus *events.Bus, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		engine:         engine,
		metrics:        metrics,
		bus:            bus,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[*analytics.Dashboard](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: auth.Middleware(mux),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	if bus != nil {
		s.unsubscribe = bus.Subscribe(func(events.DataChanged) {
			s.dashboardCache.Purge()
		})
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mount(mux, s, core.EntityIncomes, engine.Incomes(), storage.IncomeOps)
	mount(mux, s, core.EntityFuel, engine.Fuel(), storage.FuelOps)
	mount(mux, s, core.EntityMaintenance, engine.Maintenance(), storage.MaintenanceOps)
	mount(mux, s, core.EntityGoals, engine.Goals(), storage.GoalOps)

	mux.HandleFunc("GET /api/"+core.EntityIncomes+"/{id}/metricas", s.withMiddleware(s.handleIncomeRates))
	mux.HandleFunc("GET /api/"+core.EntityGoals+"/progreso", s.withMiddleware(s.handleGoalProgress))
	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/export", s.withMiddleware(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withMiddleware(s.handleImport))

	return s
}

// withMiddleware adds request tracing, logging and rate limiting on writes.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := r.Context()

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if mutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) publish(entity, action, recordID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.DataChanged{Entity: entity, Action: action, RecordID: recordID})
}

// Shutdown stops the HTTP server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
