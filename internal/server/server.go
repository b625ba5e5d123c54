package server

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/talhaaqma-byte/todoapp/internal/database"
	"github.com/talhaaqma-byte/todoapp/internal/service"
)

type Server struct {
	port        int
	todoService service.TodoService
	authService service.AuthService
	db          database.Service
	logger      *log.Logger
}

// NewServer builds the http.Server hosting the API.
func NewServer(port int, todoService service.TodoService, authService service.AuthService, dbService database.Service, logger *log.Logger) *http.Server {
	appServer := &Server{
		port:        port,
		todoService: todoService,
		authService: authService,
		db:          dbService,
		logger:      logger,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
