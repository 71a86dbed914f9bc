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

type ReconciliationHandler struct {
	service *service.ReconciliationService
}

func NewReconciliationHandler(service *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
	}
}

// ReconcileAccount POST /api/v1/reconciliation/{accountID} - ручная сверка
func (h *ReconciliationHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ReconcileAccount"
	log := middlew.GetLogger(r.Context())

	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		log.Warn("accountID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "accountID is required")
		return
	}

	result, err := h.service.ReconcileAccount(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("account_id", accountID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("reconciliation failed", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Reconciliation failed")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}

// Execute POST /api/v1/reconciliation/execute - внеплановая сверка всех счетов,
// не дожидаясь тика планового цикла
func (h *ReconciliationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ReconciliationExecute"
	log := middlew.GetLogger(r.Context())

	fixed, err := h.service.ReconcileAll(r.Context())
	if err != nil {
		log.Error("reconciliation failed", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Reconciliation failed")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, map[string]int{"fixed": fixed})
}

// Status GET /api/v1/reconciliation/status - сравнение всех счетов без исправления
func (h *ReconciliationHandler) Status(w http.ResponseWriter, r *http.Request) {
	const op = "handler.ReconciliationStatus"
	log := middlew.GetLogger(r.Context())

	results, err := h.service.Status(r.Context())
	if err != nil {
		log.Error("failed to get status", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to get reconciliation status")
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, results)
}
