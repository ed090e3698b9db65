package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const locationEvent = "riderLocationUpdate"

type RiderFlows interface {
	ListPending(ctx context.Context) ([]*domain.Rider, error)
	ListAvailable(ctx context.Context) ([]*domain.Rider, error)
	Approve(ctx context.Context, riderID, companyID string) (*domain.Rider, error)
	Decline(ctx context.Context, riderID, companyID string) (*domain.Rider, error)
	SetAvailability(ctx context.Context, riderID string, available bool) (*domain.Rider, error)
	UpdateLocation(ctx context.Context, riderID string, lat, lng float64) (*domain.RiderLocation, error)
	LastLocation(ctx context.Context, riderID string) (*domain.RiderLocation, error)
	StreamLocations(ctx context.Context) (<-chan domain.RiderLocation, error)
}

type RiderHandler struct {
	svc       RiderFlows
	heartbeat time.Duration
	log       *logger.Logger
}

func NewRiderHandler(svc RiderFlows, log *logger.Logger) *RiderHandler {
	return &RiderHandler{svc: svc, heartbeat: 25 * time.Second, log: log.Named("RiderHandler")}
}

func riderList(list []*domain.Rider) map[string]any {
	if list == nil {
		list = []*domain.Rider{}
	}
	return map[string]any{"count": len(list), "data": list}
}

func (h *RiderHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, riderList(list))
}

func (h *RiderHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, riderList(list))
}

func (h *RiderHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Approve, "Rider approved successfully")
}

func (h *RiderHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Decline, "Rider declined")
}

func (h *RiderHandler) decide(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, riderID, companyID string) (*domain.Rider, error), msg string) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	rider, err := fn(r.Context(), chi.URLParam(r, "id"), c.Subject)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "data": rider})
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

func (h *RiderHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.IsAvailable == nil {
		writeMessage(w, http.StatusBadRequest, "isAvailable is required")
		return
	}
	rider, err := h.svc.SetAvailability(r.Context(), c.Subject, *req.IsAvailable)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Availability updated", "data": rider})
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *RiderHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeMessage(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}
	loc, err := h.svc.UpdateLocation(r.Context(), c.Subject, *req.Lat, *req.Lng)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Location updated", "data": loc})
}

func (h *RiderHandler) LastLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.svc.LastLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": loc})
}

// StreamLocations relays live rider positions as Server-Sent Events until the
// client goes away.
func (h *RiderHandler) StreamLocations(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	ctx := r.Context()
	updates, err := h.svc.StreamLocations(ctx)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case loc, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(loc)
			if err != nil {
				h.log.Warn("Failed to encode location", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", locationEvent, data)
			flusher.Flush()
		}
	}
}
