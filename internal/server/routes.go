package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
	"github.com/talhaaqma-byte/todoapp/internal/service"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.registerHandler)
			r.Post("/login", s.loginHandler)
			r.Post("/refresh", s.refreshHandler)
			r.With(s.requireAuth).Get("/user", s.currentUserHandler)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.listTodosHandler)
			r.Post("/", s.createTodoHandler)
			r.Get("/stats", s.statsHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTodoHandler)
				r.Put("/", s.updateTodoHandler)
				r.Patch("/", s.updateTodoHandler)
				r.Delete("/", s.deleteTodoHandler)
				r.Patch("/toggle_complete", s.toggleCompleteHandler)
			})
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err, "Failed to register")
		return
	}
	respondWithJSON(w, http.StatusCreated, resp)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err, "Failed to log in")
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	access, err := s.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		s.respondServiceError(w, err, "Failed to refresh token")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing authentication")
		return
	}
	user, err := s.authService.GetUser(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "Failed to load user")
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req service.CreateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	todoResp, err := s.todoService.CreateTodo(r.Context(), userID, req)
	if err != nil {
		s.respondServiceError(w, err, "Failed to create todo")
		return
	}
	respondWithJSON(w, http.StatusCreated, todoResp)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	todos, err := s.todoService.ListTodos(r.Context(), userID, queryFilters(r))
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve todos")
		return
	}
	respondWithJSON(w, http.StatusOK, todos)
}

// queryFilters reads the optional query parameters into a QueryFilters.
// Every parameter is independent; anything absent stays zero.
func queryFilters(r *http.Request) repository.QueryFilters {
	q := r.URL.Query()
	filters := repository.QueryFilters{
		Priority: domain.Priority(q.Get("priority")),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
	}
	if v := q.Get("completed"); v != "" {
		completed := strings.EqualFold(v, "true")
		filters.Completed = &completed
	}
	return filters
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.todoRequestIDs(w, r)
	if !ok {
		return
	}
	todo, err := s.todoService.GetTodo(r.Context(), userID, id)
	if err != nil {
		s.respondServiceError(w, err, "Failed to retrieve todo")
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.todoRequestIDs(w, r)
	if !ok {
		return
	}

	var req service.UpdateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	updatedTodo, err := s.todoService.UpdateTodo(r.Context(), userID, id, req)
	if err != nil {
		s.respondServiceError(w, err, "Failed to update todo")
		return
	}
	respondWithJSON(w, http.StatusOK, updatedTodo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.todoRequestIDs(w, r)
	if !ok {
		return
	}
	if err := s.todoService.DeleteTodo(r.Context(), userID, id); err != nil {
		s.respondServiceError(w, err, "Failed to delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleCompleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := s.todoRequestIDs(w, r)
	if !ok {
		return
	}
	todo, err := s.todoService.ToggleComplete(r.Context(), userID, id)
	if err != nil {
		s.respondServiceError(w, err, "Failed to toggle todo")
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing authentication")
		return
	}
	stats, err := s.todoService.Stats(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err, "Failed to compute stats")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// todoRequestIDs extracts the authenticated owner id and the path id,
// writing the error response itself when either is missing.
func (s *Server) todoRequestIDs(w http.ResponseWriter, r *http.Request) (userID, id uint, ok bool) {
	userID, ok = userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "missing authentication")
		return 0, 0, false
	}
	idStr := chi.URLParam(r, "id")
	parsed, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || parsed == 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return 0, 0, false
	}
	return userID, uint(parsed), true
}

// decodeJSON decodes the request body into dst, writing a descriptive 400
// on malformed input. Returns false when a response was already written.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var validationError *domain.ValidationError
	switch {
	case errors.As(err, &syntaxError):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset))
	case errors.As(err, &validationError):
		respondWithError(w, http.StatusBadRequest, validationError.Error())
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName))
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, "Request body must not be empty")
	default:
		s.logger.WithError(err).Error("decoding request body")
		respondWithError(w, http.StatusInternalServerError, "Error processing request")
	}
	return false
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses.
// Not-found never distinguishes a foreign record from a missing one.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var validationError *domain.ValidationError
	switch {
	case errors.As(err, &validationError):
		respondWithError(w, http.StatusBadRequest, validationError.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		s.logger.WithError(err).Error("service call failed")
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
