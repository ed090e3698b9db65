package handler

import (
	"context"
	"net/http"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/middleware"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

type NotificationFlows interface {
	List(ctx context.Context, recipientID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type NotificationHandler struct {
	svc NotificationFlows
	log *logger.Logger
}

func NewNotificationHandler(svc NotificationFlows, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log.Named("NotificationHandler")}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	list, err := h.svc.List(r.Context(), c.Subject)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if list == nil {
		list = []*domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "data": list})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	c := middleware.ClaimsFromContext(r.Context())
	if c == nil {
		writeError(w, r, h.log, domain.ErrMissingToken)
		return
	}
	if err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"), c.Subject); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}
