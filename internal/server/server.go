package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Tomlord1122/taskboard/internal/service"
)

// HealthChecker reports the state of the storage backing the board.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	port       int
	taskStore  service.TaskStore
	todoLoader *service.TodoLoader
	health     HealthChecker

	// baseCtx scopes background work that outlives a single request.
	baseCtx context.Context
	pages   *pages
}

// NewServer wires the handlers into an *http.Server listening on port.
// baseCtx is handed to the todo loader when the Todos screen is first opened.
func NewServer(baseCtx context.Context, port int, taskStore service.TaskStore, todoLoader *service.TodoLoader, health HealthChecker) *http.Server {
	appServer := &Server{
		port:       port,
		taskStore:  taskStore,
		todoLoader: todoLoader,
		health:     health,
		baseCtx:    baseCtx,
		pages:      parsePages(),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
