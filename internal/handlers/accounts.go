package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/middleware"
	"github.com/bonheur15/credit-jambo-admin/internal/money"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	balance, err := h.accounts.Balance(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id": account.ID,
		"currency":   account.Currency,
		"balance":    money.FormatMinor(balance),
	})
}

// RecordSnapshot folds the account's history and writes it down as a
// checkpoint row. Snapshots are bookkeeping only; reads keep folding the
// full log.
func (h *Handler) RecordSnapshot(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	accountID := chi.URLParam(r, "accountID")
	if _, err := h.accounts.GetByID(r.Context(), accountID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	balance, err := h.accounts.Balance(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute balance")
		return
	}
	snapshotID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.snapshots.Record(r.Context(), tx, snapshotID, accountID, balance); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"balance": money.FormatMinor(balance),
		})
		return h.audit.Log(r.Context(), tx, claims.UserID, "balance_snapshot", "account", accountID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record snapshot")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":         snapshotID,
		"account_id": accountID,
		"balance":    money.FormatMinor(balance),
	})
}
