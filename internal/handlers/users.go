package handlers

import (
	"database/sql"
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/money"
	"github.com/bonheur15/credit-jambo-admin/internal/store"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	normalized := make([]map[string]any, 0, len(users))
	for _, user := range users {
		normalized = append(normalized, normalizeUser(user))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	accounts, err := h.accounts.ListByUserWithBalances(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	normalizedAccounts := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		normalizedAccounts = append(normalizedAccounts, map[string]any{
			"id":       account.ID,
			"currency": account.Currency,
			"balance":  money.FormatMinor(account.Balance),
		})
	}
	payload := normalizeUser(user)
	payload["accounts"] = normalizedAccounts
	respondJSON(w, http.StatusOK, payload)
}

// normalizeUser never exposes the digest or salt.
func normalizeUser(user store.User) map[string]any {
	return map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
}
