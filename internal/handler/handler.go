package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/finhealth/internal/defusal"
	"github.com/Dan9191/finhealth/internal/health"
	"github.com/Dan9191/finhealth/internal/identity"
	"github.com/Dan9191/finhealth/internal/quotes"
	"github.com/Dan9191/finhealth/internal/records"
	"github.com/Dan9191/finhealth/internal/repository"
	"github.com/Dan9191/finhealth/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API of the service
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler creates a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the authenticated API routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/bombs/plans", h.BombPlans).Methods("GET")
	r.HandleFunc("/bombs/{id}/mix", h.CustomMix).Methods("POST")
	r.HandleFunc("/thresholds", h.GetThresholds).Methods("GET")
	r.HandleFunc("/thresholds", h.UpdateThresholds).Methods("PUT")
	r.HandleFunc("/aggregates/publish", h.PublishAggregates).Methods("POST")
	r.HandleFunc("/quotes/{ticker}", h.Quote).Methods("GET")
	r.HandleFunc("/quotes/{ticker}", h.UpdatePrice).Methods("PUT")
	r.HandleFunc("/records/{kind}/{id}", h.SaveRecord).Methods("PUT")
}

// Health handles the health report for ?view=self|merged|specific:<id>
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	view, err := health.ParseViewMode(r.URL.Query().Get("view"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	report, err := h.svc.Health(r.Context(), userID, view)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// BombPlans handles defusal plans for all of the caller's bombs
func (h *Handler) BombPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	plans, err := h.svc.PlanBombs(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]defusal.Plan{"plans": plans})
}

// CustomMix handles scoring a hand-picked mix for one bomb
func (h *Handler) CustomMix(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var sel defusal.MixSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for id, shares := range sel.Shares {
		if shares < 0 {
			h.writeMessage(w, http.StatusBadRequest, "share count for "+id+" must not be negative")
			return
		}
	}
	res, err := h.svc.CustomMix(r.Context(), userID, mux.Vars(r)["id"], sel)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// GetThresholds handles reading the caller's thresholds
func (h *Handler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Thresholds(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

// UpdateThresholds handles replacing the caller's thresholds
func (h *Handler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var t health.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpdateThresholds(r.Context(), userID, t); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

// PublishAggregates handles republishing the caller's shared totals
func (h *Handler) PublishAggregates(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	agg, err := h.svc.PublishAggregates(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, agg)
}

// Quote handles pricing a ticker, optionally in ?currency=
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Quote(r.Context(), userID, mux.Vars(r)["ticker"], r.URL.Query().Get("currency"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

// priceRequest is the body of a price update
type priceRequest struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// UpdatePrice handles storing the last known price of a ticker
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.UpdatePrice(r.Context(), mux.Vars(r)["ticker"], req.Price, req.Currency); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveRecord handles storing one of the caller's records
func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var raw records.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vars := mux.Vars(r)
	if err := h.svc.SaveRecord(r.Context(), userID, vars["kind"], vars["id"], raw); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeMessage(w, http.StatusUnauthorized, identity.ErrNoIdentity.Error())
	}
	return id, ok
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, health.ErrInvalidViewMode), errors.Is(err, health.ErrInvalidThresholds), errors.Is(err, service.ErrInvalidRecord),
		errors.Is(err, service.ErrInvalidPrice):
		h.writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotSaved):
		h.writeMessage(w, http.StatusConflict, err.Error())
	case service.IsNotFound(err):
		h.writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quotes.ErrNoRate):
		h.writeMessage(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		h.writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
