package api

import (
	"net/http"

	"loan-advisor/internal/common/database"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady pings every configured dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := database.CheckAll(r.Context(), s.readyTimeout, s.dependencies...)
	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failures": failures})
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unavailable",
			"failures": failures,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
