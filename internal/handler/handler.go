package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"secretsanta/internal/domain"
	"secretsanta/internal/service"
)

type Handler struct {
	svc *service.Service
	log *slog.Logger
}

func New(svc *service.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadyCheck)
	r.Post("/groups", h.CreateGroup)
	r.Route("/groups/{group}", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Delete("/", h.ResetGroup)
		r.Post("/participants", h.Register)
		r.Get("/participants", h.ListParticipants)
		r.Delete("/participants/{name}", h.RemoveParticipant)
		r.Post("/draw", h.Draw)
		r.Delete("/draw", h.ClearDraw)
		r.Get("/result/{name}", h.GetResult)
		r.Get("/stats", h.DrawStats)
	})
}

// pathParam returns the decoded URL parameter. chi matches on RawPath when
// the request carries escapes such as %2F, leaving them in the value.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

type APIErrorResponse struct {
	Error APIErrorDetail `json:"error"`
}

type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIErrorResponse{Error: APIErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeAPIError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrInvalidName):
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	case errors.Is(err, domain.ErrAlreadyDrawn):
		writeAPIError(w, http.StatusConflict, "ALREADY_DRAWN", err.Error())
	case errors.Is(err, domain.ErrNotDrawn):
		writeAPIError(w, http.StatusConflict, "NOT_DRAWN", err.Error())
	case errors.Is(err, domain.ErrNotEnoughParticipants):
		writeAPIError(w, http.StatusBadRequest, "NOT_ENOUGH_PARTICIPANTS", err.Error())
	case errors.Is(err, domain.ErrUnsatisfiable):
		writeAPIError(w, http.StatusUnprocessableEntity, "UNSATISFIABLE", err.Error())
	case errors.Is(err, domain.ErrDrawFailed):
		writeAPIError(w, http.StatusServiceUnavailable, "DRAW_FAILED", domain.ErrDrawFailed.Error())
	default:
		h.log.Error("internal server error", "error", err)
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
