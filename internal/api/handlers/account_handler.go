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

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

// CreateAccount POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.CreateAccount"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidInput):
			log.Warn("missing required fields", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "account_id, account_name and bank_code are required")
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("negative initial balance", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "initial_balance must not be negative")
		case errors.Is(err, custom_err.ErrAccountExists):
			log.Info("account already exists", slog.String("op", op), slog.String("account_id", req.AccountID))
			response.WriteJSONError(w, log, http.StatusConflict, "already_exists", "Account already exists")
		default:
			log.Error("failed to create account", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to create account")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusCreated, account)
}

// GetAccount GET /api/v1/accounts/{accountID}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetAccount"
	log := middlew.GetLogger(r.Context())

	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		log.Warn("accountID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "accountID is required")
		return
	}

	info, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("account_id", accountID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to get account", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve account")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, info)
}

// GetBalance GET /api/v1/accounts/{accountID}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetBalance"
	log := middlew.GetLogger(r.Context())

	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		log.Warn("accountID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "accountID is required")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("account_id", accountID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		default:
			log.Error("failed to get balance", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to retrieve balance")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, map[string]any{
		"account_id": accountID,
		"balance":    models.AmountFromMinorUnits(balance),
	})
}

// Deposit POST /api/v1/accounts/{accountID}/deposit
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Deposit"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		log.Warn("accountID is required", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "accountID is required")
		return
	}

	var req models.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	newBalance, err := h.service.Deposit(r.Context(), accountID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("amount must be positive", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_field", "Amount must be positive")
		case errors.Is(err, custom_err.ErrNotFound):
			log.Info("account not found", slog.String("op", op), slog.String("account_id", accountID))
			response.WriteJSONError(w, log, http.StatusNotFound, "not_found", "Account not found")
		case errors.Is(err, custom_err.ErrConcurrentConflict):
			log.Warn("concurrent update conflict", slog.String("op", op), slog.String("account_id", accountID))
			response.WriteJSONError(w, log, http.StatusConflict, "conflict", "Concurrent update, retry later")
		default:
			log.Error("failed to deposit", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Failed to deposit")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.DepositResponse{
		AccountID:  accountID,
		NewBalance: models.AmountFromMinorUnits(newBalance),
	})
}
