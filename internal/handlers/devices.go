package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/middleware"
	"github.com/bonheur15/credit-jambo-admin/internal/store"
	"github.com/bonheur15/credit-jambo-admin/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load devices")
		return
	}
	normalized := make([]map[string]any, 0, len(devices))
	for _, device := range devices {
		normalized = append(normalized, map[string]any{
			"id":            device.ID,
			"user_id":       derefString(device.UserID),
			"device_id":     device.DeviceID,
			"device_meta":   parseMetadata(device.DeviceMeta),
			"registered_at": device.RegisteredAt,
			"created_by":    derefString(device.CreatedBy),
			"status":        device.Status,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type approveRequest struct {
	Note *string `json:"note"`
}

// ApproveDevice appends a VERIFIED event and advances the materialized
// device status in the same transaction. Approving an already verified
// device appends another event; the history keeps every approval.
func (h *Handler) ApproveDevice(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	deviceID := chi.URLParam(r, "id")
	device, err := h.devices.GetByID(r.Context(), deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "device not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load device")
		return
	}

	var req approveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	verificationID := uuid.NewString()
	adminID := claims.UserID
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		event := store.VerificationInput{
			ID:       verificationID,
			DeviceID: device.ID,
			AdminID:  &adminID,
			Status:   store.DeviceStatusVerified,
			Note:     req.Note,
		}
		if err := h.devices.AppendVerification(r.Context(), tx, event); err != nil {
			return err
		}
		if _, err := h.devices.SetStatus(r.Context(), tx, device.ID, store.DeviceStatusVerified); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"device_id":       device.DeviceID,
			"verification_id": verificationID,
		})
		return h.audit.Log(r.Context(), tx, adminID, "device_approve", "device", device.ID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to approve device")
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.ActivityEvent{
			Kind:     "device_approved",
			EntityID: device.ID,
			Status:   store.DeviceStatusVerified,
		})
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"id":        verificationID,
		"device_id": device.ID,
		"status":    store.DeviceStatusVerified,
	})
}

func (h *Handler) ListDeviceVerifications(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	if _, err := h.devices.GetByID(r.Context(), deviceID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "device not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load device")
		return
	}
	events, err := h.devices.ListVerifications(r.Context(), deviceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load verifications")
		return
	}
	normalized := make([]map[string]any, 0, len(events))
	for _, event := range events {
		normalized = append(normalized, map[string]any{
			"id":         event.ID,
			"device_id":  event.DeviceID,
			"admin_id":   derefString(event.AdminID),
			"status":     event.Status,
			"note":       derefString(event.Note),
			"created_at": event.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}
