package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"secretsanta/internal/domain"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return
	}

	p, total, err := h.svc.Register(r.Context(), pathParam(r, "group"), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeAPIError(w, http.StatusConflict, "PARTICIPANT_EXISTS", "name is already registered")
			return
		}
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"participant":        p,
		"total_participants": total,
	})
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListParticipants(r.Context(), pathParam(r, "group"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participants": ps,
		"count":        len(ps),
	})
}

func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.svc.RemoveParticipant(r.Context(), pathParam(r, "group"), pathParam(r, "name"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"remaining_participants": remaining})
}
