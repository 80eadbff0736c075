package http

import (
	"net/http"

	"kiguca/internal/core"
	"kiguca/internal/events"
	"kiguca/internal/storage"
)

// handleExport streams the full dataset as one JSON document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	dump, err := s.engine.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="kiguca-export.json"`)
	writeJSON(w, http.StatusOK, dump)
}

// handleImport ingests a previously exported document. Import is best effort
// per record; malformed rows land in the errors array instead of aborting the
// whole load.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var dump storage.RawDump
	if err := decodeBody(r, &dump); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	result, err := s.engine.Import(r.Context(), &dump)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Import finished",
		"created", result.Created,
		"updated", result.Updated,
		"errors", len(result.Errors))
	if result.Created > 0 || result.Updated > 0 {
		for _, entity := range []string{core.EntityIncomes, core.EntityFuel, core.EntityMaintenance, core.EntityGoals} {
			s.publish(entity, events.ActionImported, "")
		}
	}
	writeJSON(w, http.StatusOK, result)
}
