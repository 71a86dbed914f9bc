package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"distribute-bank/internal/api/middlew"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/service"
	"distribute-bank/pkg/response"

	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// GetNotification GET /api/v1/notifications/{transactionID}
func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetNotification"
	log := middlew.GetLogger(r.Context())

	transactionID := chi.URLParam(r, "transactionID")
	if transactionID == "" {
		log.Warn("transactionID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "transactionID is required")
		return
	}

	record, err := h.service.GetNotification(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("notification not found", slog.String("op", op), slog.String("tx_id", transactionID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Notification not found")
		default:
			log.Error("failed to get notification", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve notification")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, record)
}

// ListNotifications GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ListNotifications"
	log := middlew.GetLogger(r.Context())

	records, err := h.service.ListNotifications(r.Context())
	if err != nil {
		log.Error("failed to list notifications", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to list notifications")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, records)
}
