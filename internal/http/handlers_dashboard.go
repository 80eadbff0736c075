package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"kiguca/internal/analytics"
	"kiguca/internal/auth"
	"kiguca/internal/core"
	"kiguca/internal/log"
)

// handleDashboard serves the billing-cycle summary. Responses are cached per
// owner and day; any data change purges the cache via the event bus.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today := strings.TrimSpace(r.URL.Query().Get("fecha"))
	if today == "" {
		today = time.Now().UTC().Format(core.DateLayout)
	}

	key := dashboardKey(r, today)
	if dash, found := s.dashboardCache.Get(key); found {
		s.logger.Debug("Dashboard cache hit", "key", key)
		writeJSON(w, http.StatusOK, dash)
		return
	}

	dash, err := s.metrics.BuildDashboard(r.Context(), today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dashboardCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

// handleGoalProgress serves the active goal with the incomes inside its
// period. A 200 with a null goal means nothing is active.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.metrics.IncomesWithinGoalPeriod(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// handleIncomeRates serves the per-record efficiency figures for one income.
func (s *Server) handleIncomeRates(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.engine.Incomes().Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: core.EntityIncomes + " " + id + " not found"})
		return
	}
	s.logger.Debug("Computed income rates", log.FieldRecordID, id)
	writeJSON(w, http.StatusOK, analytics.RatesFor(*rec))
}

// dashboardKey scopes cache entries to the verified credential. A cache hit
// skips the backend entirely, so the key must come from the token the backend
// enforces ownership with, never from a header the caller picks.
func dashboardKey(r *http.Request, today string) string {
	owner := "local"
	if id, ok := auth.FromContext(r.Context()); ok && id.Token != "" {
		sum := sha256.Sum256([]byte(id.Token))
		owner = hex.EncodeToString(sum[:8])
	}
	return owner + ":" + today
}
