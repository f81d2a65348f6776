package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bonheur15/credit-jambo-admin/internal/config"
	"github.com/bonheur15/credit-jambo-admin/internal/db"
	"github.com/bonheur15/credit-jambo-admin/internal/handlers"
	"github.com/bonheur15/credit-jambo-admin/internal/services"
	"github.com/bonheur15/credit-jambo-admin/internal/store"
	"github.com/bonheur15/credit-jambo-admin/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	tokens := store.NewTokenStore(database)
	devices := store.NewDeviceStore(database)
	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	snapshots := store.NewSnapshotStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	sessions := services.NewSessionService(txRunner, users, tokens, audit, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	handler := handlers.New(txRunner, cfg, users, accounts, devices, transactions, snapshots, audit, sessions, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("admin API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
