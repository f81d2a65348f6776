package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bonheur15/credit-jambo-admin/internal/auth"
	"github.com/bonheur15/credit-jambo-admin/internal/money"
	"github.com/bonheur15/credit-jambo-admin/internal/websocket"
)

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalUsers, err := h.users.Count(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load overview")
		return
	}
	totalDevices, err := h.devices.Count(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load overview")
		return
	}
	totalTransactions, err := h.transactions.Count(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load overview")
		return
	}
	totalVolume, err := h.transactions.SumVolume(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load overview")
		return
	}
	recent, err := h.transactions.ListRecent(ctx, 10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load overview")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"totalUsers":             totalUsers,
		"totalDevices":           totalDevices,
		"totalTransactions":      totalTransactions,
		"totalTransactionVolume": money.FormatMinor(totalVolume),
		"recentTransactions":     normalizeTransactions(recent),
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) WSActivity(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if claims.Role != "admin" {
		respondError(w, http.StatusForbidden, "admin privileges required")
		return
	}
	websocket.ServeWS(w, r, h.hub)
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
