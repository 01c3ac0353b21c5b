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

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/cache"
	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/handlers"
	pgrepo "github.com/SAP-F-2025/assessment-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/session"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
	"github.com/SAP-F-2025/assessment-engine/pkg"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(os.Stdout, cfg.IsProduction())
	slog.SetDefault(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	repo := pgrepo.NewRepository(db)

	managerOpts := []session.Option{
		session.WithConfig(cfg.Engine),
		session.WithLogger(logger),
	}
	if cfg.SessionStore == config.SessionStoreRedis {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		store := session.NewRedisStore(cache.NewRedisCache(client, logger), cfg.SessionTTL)
		managerOpts = append(managerOpts, session.WithStore(store))
		logger.Info("Using Redis session store", "ttl", cfg.SessionTTL)
	}
	manager := session.NewManager(managerOpts...)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	sessionService := services.NewSessionService(repo, manager, publisher, logger, validator.New())
	router := handlers.NewHandlerManager(sessionService, utils.NewSlogLogger(logger)).NewRouter()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Assessment engine listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
