package handler

import (
	"context"
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

type DeliveryFlows interface {
	Create(ctx context.Context, req domain.DeliveryRequest, userID string) (*domain.Delivery, error)
	Get(ctx context.Context, id string) (*domain.Delivery, error)
	Track(ctx context.Context, trackingID string) (*domain.Delivery, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.Delivery, error)
	ListForRider(ctx context.Context, riderID string) ([]*domain.Delivery, error)
	Assign(ctx context.Context, id, riderID string) (*domain.Delivery, error)
	AdvanceStatus(ctx context.Context, id, riderID, status string) (*domain.Delivery, error)
	Cancel(ctx context.Context, id string, caller *domain.Claims) (*domain.Delivery, error)
}

type DeliveryHandler struct {
	svc DeliveryFlows
	log *logger.Logger
}

func NewDeliveryHandler(svc DeliveryFlows, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{svc: svc, log: log.Named("DeliveryHandler")}
}

// Create books a delivery. Signed-in users own what they book; anonymous
// requests are accepted too.
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.DeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var userID string
	if c := middleware.ClaimsFromContext(r.Context()); c != nil && c.Role == domain.RoleUser {
		userID = c.Subject
	}
	d, err := h.svc.Create(r.Context(), req, userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "Delivery request created successfully",
		"trackingId":   d.TrackingID,
		"price":        d.Price,
		"status":       d.Status,
		"deliveryType": d.DeliveryType,
		"deliveryId":   d.ID.Hex(),
	})
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (h *DeliveryHandler) Track(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Track(r.Context(), chi.URLParam(r, "trackingId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": d})
}

func (h *DeliveryHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	var (
		list []*domain.Delivery
		err  error
	)
	if c.Role == domain.RoleRider {
		list, err = h.svc.ListForRider(r.Context(), c.Subject)
	} else {
		list, err = h.svc.ListForUser(r.Context(), c.Subject)
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []*domain.Delivery{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "data": list})
}

type assignRequest struct {
	RiderID string `json:"riderId"`
}

func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.RiderID == "" {
		writeMessage(w, http.StatusBadRequest, "Rider id is required")
		return
	}
	d, err := h.svc.Assign(r.Context(), chi.URLParam(r, "id"), req.RiderID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Rider assigned", "data": d})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	d, err := h.svc.AdvanceStatus(r.Context(), chi.URLParam(r, "id"), c.Subject, req.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Delivery status updated", "data": d})
}

func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	d, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Delivery cancelled", "data": d})
}
