package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/talhaaqma-byte/todoapp/internal/config"
	"github.com/talhaaqma-byte/todoapp/internal/database"
	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
	"github.com/talhaaqma-byte/todoapp/internal/server"
	"github.com/talhaaqma-byte/todoapp/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, logger *log.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if err := dbService.Close(); err != nil {
		logger.WithError(err).Error("Error closing database connection pool")
	}

	done <- true
}

func main() {
	logger := log.StandardLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	dbService, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	gormDB := dbService.GetDB()

	if err := gormDB.AutoMigrate(&domain.User{}, &domain.Todo{}); err != nil {
		logger.Fatalf("auto-migrate database: %v", err)
	}

	todoRepo := repository.NewGormTodoRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)

	todoService := service.NewTodoService(todoRepo)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	apiServer := server.NewServer(cfg.Port, todoService, authService, dbService, logger)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, logger, done)

	logger.Infof("Starting server on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server ListenAndServe error: %v", err)
	}

	<-done
	logger.Info("Graceful shutdown complete.")
}
