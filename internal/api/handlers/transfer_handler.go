package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"distribute-bank/internal/api/middlew"
	"distribute-bank/internal/custom_err"
	"distribute-bank/internal/models"
	"distribute-bank/internal/service"
	"distribute-bank/pkg/response"

	"github.com/go-chi/chi/v5"
)

type TransferHandler struct {
	service *service.TransactionService
}

func NewTransferHandler(service *service.TransactionService) *TransferHandler {
	return &TransferHandler{
		service: service,
	}
}

// CreateTransfer POST /api/v1/transfers - приём перевода в конвейер.
// Успешный ответ означает только то, что перевод принят: итог нужно
// узнавать через GET статуса.
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateTransfer"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	transactionID, err := h.service.CreateTransfer(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidInput):
			log.Warn("invalid transfer request", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "from_account_id and to_account_id are required and must differ")
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("amount must be positive", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "Amount must be positive")
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to create transfer", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to create transfer")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusAccepted, map[string]string{
		"transaction_id": transactionID,
		"status":         string(models.TransactionPending),
	})
}

// CreateBatchTransfer POST /api/v1/transfers/batch - массовый перевод
func (h *TransferHandler) CreateBatchTransfer(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateBatchTransfer"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.BatchTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	result, err := h.service.CreateBatchTransfer(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidInput):
			log.Warn("invalid batch request", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "from_account_id and non-empty transfers are required")
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("amount must be positive", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "Amount must be positive")
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to create batch", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to create batch transfer")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusAccepted, result)
}

// GetTransactionStatus GET /api/v1/transfers/{transactionID}
func (h *TransferHandler) GetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetTransactionStatus"
	log := middlew.GetLogger(r.Context())

	transactionID := chi.URLParam(r, "transactionID")
	if transactionID == "" {
		log.Warn("transactionID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "transactionID is required")
		return
	}

	status, err := h.service.GetTransactionStatus(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("transaction not found", slog.String("op", op), slog.String("tx_id", transactionID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Transaction not found")
		default:
			log.Error("failed to get status", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to get transaction status")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, status)
}
