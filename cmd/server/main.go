package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dipesh37/quiz1/internal/config"
	"github.com/dipesh37/quiz1/internal/database"
	"github.com/dipesh37/quiz1/internal/logger"
	"github.com/dipesh37/quiz1/internal/router"
	"github.com/dipesh37/quiz1/internal/services"
	"github.com/dipesh37/quiz1/internal/ws"

	_ "github.com/dipesh37/quiz1/docs"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs

// @title           Quiz Submission API
// @version         1.0
// @description     Collects one quiz answer per @nitj.ac.in email and lists them for admins
// @host            localhost:5000
// @BasePath        /

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := database.New(cfg, log)
	store.Start(ctx)

	hub := ws.NewHub(log)
	submissionService := services.NewSubmissionService(store, cfg.AllowedDomain)

	r := router.New(router.Deps{
		Config:      cfg,
		Log:         log,
		Store:       store,
		Submissions: submissionService,
		Hub:         hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("server failed", "error", err)
			store.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("close database", "error", err)
	}
	log.Info("server stopped")
}
