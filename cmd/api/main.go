package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/database"
	"github.com/Tomlord1122/taskboard/internal/remote"
	"github.com/Tomlord1122/taskboard/internal/repository"
	"github.com/Tomlord1122/taskboard/internal/server"
	"github.com/Tomlord1122/taskboard/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, cancelBackground context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the request it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}
	cancelBackground()

	if dbService != nil {
		log.Println("Closing database connection pool...")
		if err := dbService.Close(); err != nil {
			log.Printf("Error closing database connection pool: %v", err)
		} else {
			log.Println("Database connection pool closed.")
		}
	}

	log.Println("Server exiting")

	done <- true
}

func main() {
	cfg := config.Load()

	// 1. Storage for the durable mirror
	var (
		kvRepo    repository.KVRepository
		health    server.HealthChecker
		dbService database.Service
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		svc, err := database.New(cfg.DB, cfg.Debug)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		dbService = svc
		kvRepo = repository.NewGormKVRepository(svc.GetDB())
		health = svc
	default:
		mem := repository.NewMemoryKVRepository()
		kvRepo = mem
		health = mem
	}
	log.Printf("Using %s storage", cfg.Storage)

	// 2. Screens
	taskStore := service.NewTaskStore(kvRepo, log.Default(), cfg.Debug)
	todoClient := remote.NewClient(cfg.TodosBaseURL, cfg.TodosLimit, nil)
	todoLoader := service.NewTodoLoader(todoClient, cfg.TodosDelay, log.Default())

	// 3. Server
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	apiServer := server.NewServer(bgCtx, cfg.Port, taskStore, todoLoader, health)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, cancelBackground, done)

	log.Printf("Starting server on %s", apiServer.Addr)
	err := apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server ListenAndServe error: %v", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
}
