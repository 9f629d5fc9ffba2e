package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"secretsanta/internal/domain"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupName string `json:"group_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	group, err := h.svc.CreateGroup(r.Context(), req.GroupName)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeAPIError(w, http.StatusConflict, "GROUP_EXISTS", "group_name already exists")
			return
		}
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"group": group})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.GetStatus(r.Context(), pathParam(r, "group"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) ResetGroup(w http.ResponseWriter, r *http.Request) {
	group := pathParam(r, "group")
	if err := h.svc.Reset(r.Context(), group); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group_name": group, "reset": true})
}
