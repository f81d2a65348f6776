package handlers

import (
	"net/http"

	"github.com/bonheur15/credit-jambo-admin/internal/config"
	"github.com/bonheur15/credit-jambo-admin/internal/db"
	"github.com/bonheur15/credit-jambo-admin/internal/middleware"
	"github.com/bonheur15/credit-jambo-admin/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	accounts     AccountStore
	devices      DeviceStore
	transactions TransactionStore
	snapshots    SnapshotStore
	audit        AuditStore
	sessions     SessionService
	hub          *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, devices DeviceStore, transactions TransactionStore, snapshots SnapshotStore, audit AuditStore, sessions SessionService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		accounts:     accounts,
		devices:      devices,
		transactions: transactions,
		snapshots:    snapshots,
		audit:        audit,
		sessions:     sessions,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authOnly := middleware.Auth(h.cfg.JWTSecret)
	adminOnly := middleware.RequireAdmin()

	router.Route("/users", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshToken)
		r.With(authOnly, adminOnly).Get("/", h.ListUsers)
		r.With(authOnly, adminOnly).Get("/{id}", h.GetUser)
	})

	router.With(authOnly).Get("/auth/me", h.Me)

	router.Route("/devices", func(r chi.Router) {
		r.Use(authOnly, adminOnly)
		r.Get("/", h.ListDevices)
		r.Put("/{id}/approve", h.ApproveDevice)
		r.Get("/{id}/verifications", h.ListDeviceVerifications)
	})

	router.Route("/accounts/{accountID}", func(r chi.Router) {
		r.Use(authOnly, adminOnly)
		r.Post("/transactions", h.CreateTransaction)
		r.Get("/transactions", h.ListAccountTransactions)
		r.Get("/balance", h.GetBalance)
		r.Post("/snapshot", h.RecordSnapshot)
	})

	router.With(authOnly, adminOnly).Get("/transactions", h.ListAllTransactions)
	router.With(authOnly, adminOnly).Get("/dashboard/overview", h.Overview)
	router.With(authOnly, adminOnly).Get("/audit", h.ListAuditLogs)
	router.Get("/ws/activity", h.WSActivity)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
