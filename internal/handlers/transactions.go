package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/middleware"
	"github.com/bonheur15/credit-jambo-admin/internal/money"
	"github.com/bonheur15/credit-jambo-admin/internal/store"
	"github.com/bonheur15/credit-jambo-admin/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// recentPageSize bounds account listings unless ?all=true is passed.
const recentPageSize = 2

type createTransactionRequest struct {
	Type      string         `json:"type"`
	Amount    string         `json:"amount"`
	Reference *string        `json:"reference"`
	Meta      map[string]any `json:"meta"`
	Status    string         `json:"status"`
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "accountID")
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Type != store.TransactionTypeDeposit && req.Type != store.TransactionTypeWithdrawal {
		respondError(w, http.StatusBadRequest, "invalid_type")
		return
	}
	// Amount is a magnitude; type carries the sign.
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	status := req.Status
	if status == "" {
		status = store.TransactionStatusCompleted
	}
	if status != store.TransactionStatusPending && status != store.TransactionStatusCompleted && status != store.TransactionStatusFailed {
		respondError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	if _, err := h.accounts.GetByID(r.Context(), accountID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}

	meta := "{}"
	if req.Meta != nil {
		encoded, err := json.Marshal(req.Meta)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		meta = string(encoded)
	}
	transactionID := uuid.NewString()
	createdBy := claims.UserID
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		input := store.TransactionInput{
			ID:        transactionID,
			AccountID: accountID,
			Type:      req.Type,
			Status:    status,
			Amount:    amountMinor,
			Reference: req.Reference,
			Meta:      meta,
			CreatedBy: &createdBy,
		}
		if err := h.transactions.Create(r.Context(), tx, input); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"type":   req.Type,
			"amount": money.FormatMinor(amountMinor),
		})
		return h.audit.Log(r.Context(), tx, createdBy, "transaction_create", "transaction", transactionID, string(data))
	})
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "duplicate_request")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create transaction")
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.ActivityEvent{
			Kind:      "transaction_created",
			EntityID:  transactionID,
			AccountID: accountID,
			Type:      req.Type,
			Amount:    money.FormatMinor(amountMinor),
			Status:    status,
		})
	}
	created, err := h.transactions.GetByID(r.Context(), transactionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transaction")
		return
	}
	respondJSON(w, http.StatusCreated, normalizeTransaction(created))
}

func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	limit := recentPageSize
	if r.URL.Query().Get("all") == "true" {
		limit = 0
	}
	transactions, err := h.transactions.ListByAccount(r.Context(), accountID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(transactions))
}

func (h *Handler) ListAllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactions.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, normalizeTransactions(transactions))
}

func normalizeTransactions(rows []store.Transaction) []map[string]any {
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, normalizeTransaction(row))
	}
	return normalized
}

func normalizeTransaction(row store.Transaction) map[string]any {
	return map[string]any{
		"id":         row.ID,
		"account_id": row.AccountID,
		"type":       row.Type,
		"status":     row.Status,
		"amount":     money.FormatMinor(row.Amount),
		"reference":  derefString(row.Reference),
		"meta":       parseMetadata(row.Meta),
		"created_by": derefString(row.CreatedBy),
		"created_at": row.CreatedAt,
	}
}
