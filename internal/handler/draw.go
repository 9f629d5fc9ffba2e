package handler

import "net/http"

func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	draw, err := h.svc.Draw(r.Context(), pathParam(r, "group"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"draw_id":     draw.ID,
		"total_pairs": len(draw.Assignments),
		"drawn_at":    draw.DrawnAt,
	})
}

func (h *Handler) ClearDraw(w http.ResponseWriter, r *http.Request) {
	group := pathParam(r, "group")
	if err := h.svc.ClearDraw(r.Context(), group); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group_name": group, "is_drawn": false})
}

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetResult(r.Context(), pathParam(r, "group"), pathParam(r, "name"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DrawStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DrawStats(r.Context(), pathParam(r, "group"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
