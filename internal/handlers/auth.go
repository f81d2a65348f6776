package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/middleware"
	"github.com/bonheur15/credit-jambo-admin/internal/services"
	"github.com/bonheur15/credit-jambo-admin/internal/validator"
)

type loginRequest struct {
	Email string `json:"email"`
	// The dashboard sends the password under this key.
	Password string `json:"password_hash"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.sessions.Login(r.Context(), req.Email, req.Password, services.RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if err == services.ErrInvalidCredentials {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"jwt":           session.Token,
		"refresh_token": session.RefreshSecret,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	session, err := h.sessions.Refresh(r.Context(), req.RefreshToken, services.RequestMeta{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if err == services.ErrInvalidRefreshToken {
			respondError(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		respondError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"jwt":           session.Token,
		"refresh_token": session.RefreshSecret,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":    claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
	})
}
