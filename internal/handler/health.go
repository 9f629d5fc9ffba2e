package handler

import "net/http"

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// ReadyCheck reports whether the storage backend answers.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.Warn("storage not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "UNAVAILABLE"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "READY"})
}
