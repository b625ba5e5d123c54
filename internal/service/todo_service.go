package service

import (
	"context"
	"time"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo.
// DueDatetime is accepted as a raw string because clients may send bare,
// timezone-less timestamps that a time.Time field would reject.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
	DueDatetime *string `json:"due_datetime"`
}

// UpdateTodoRequest holds a partial update. Pointer fields distinguish
// omitted from zero-valued; an empty string clears an optional field.
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	DueDatetime *string `json:"due_datetime"`
}

// TodoResponse is the representation of a todo returned to clients.
// IsOverdue is derived at response time, never stored.
type TodoResponse struct {
	ID                uint         `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Completed         bool         `json:"completed"`
	Priority          string       `json:"priority"`
	DueDate           *domain.Date `json:"due_date"`
	DueDatetime       *time.Time   `json:"due_datetime"`
	ReminderSent      bool         `json:"reminder_sent"`
	FollowupEmailSent bool         `json:"followup_email_sent"`
	IsOverdue         bool         `json:"is_overdue"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// TodoService contains the todo business logic. Every operation takes the
// already-authenticated owner id and never exposes another user's records.
type TodoService interface {
	CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*TodoResponse, error)
	GetTodo(ctx context.Context, userID, id uint) (*TodoResponse, error)
	ListTodos(ctx context.Context, userID uint, filters repository.QueryFilters) ([]TodoResponse, error)
	UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, userID, id uint) error
	ToggleComplete(ctx context.Context, userID, id uint) (*TodoResponse, error)
	Stats(ctx context.Context, userID uint) (*domain.Stats, error)
}

type todoService struct {
	repo repository.TodoRepository
	now  func() time.Time
}

// NewTodoService creates a todo service backed by the given repository.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{repo: repo, now: time.Now}
}

func (s *todoService) CreateTodo(ctx context.Context, userID uint, req CreateTodoRequest) (*TodoResponse, error) {
	todo := &domain.Todo{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Priority:    domain.PriorityMedium,
	}
	if req.Priority != "" {
		todo.Priority = domain.Priority(req.Priority)
	}
	if req.DueDate != nil && *req.DueDate != "" {
		date, err := domain.ParseDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		todo.DueDate = &date
	}
	if req.DueDatetime != nil && *req.DueDatetime != "" {
		at, err := domain.ParseDueDatetime(*req.DueDatetime)
		if err != nil {
			return nil, err
		}
		todo.DueDatetime = &at
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}
	return s.toResponse(todo), nil
}

func (s *todoService) GetTodo(ctx context.Context, userID, id uint) (*TodoResponse, error) {
	todo, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(todo), nil
}

func (s *todoService) ListTodos(ctx context.Context, userID uint, filters repository.QueryFilters) ([]TodoResponse, error) {
	todos, err := s.repo.List(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, *s.toResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, userID, id uint, req UpdateTodoRequest) (*TodoResponse, error) {
	todo, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Priority != nil {
		todo.Priority = domain.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			todo.DueDate = nil
		} else {
			date, err := domain.ParseDate(*req.DueDate)
			if err != nil {
				return nil, err
			}
			todo.DueDate = &date
		}
	}
	if req.DueDatetime != nil {
		if *req.DueDatetime == "" {
			todo.DueDatetime = nil
		} else {
			at, err := domain.ParseDueDatetime(*req.DueDatetime)
			if err != nil {
				return nil, err
			}
			todo.DueDatetime = &at
		}
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, todo); err != nil {
		return nil, err
	}
	return s.toResponse(todo), nil
}

func (s *todoService) DeleteTodo(ctx context.Context, userID, id uint) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *todoService) ToggleComplete(ctx context.Context, userID, id uint) (*TodoResponse, error) {
	todo, err := s.repo.ToggleComplete(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(todo), nil
}

func (s *todoService) Stats(ctx context.Context, userID uint) (*domain.Stats, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *todoService) toResponse(todo *domain.Todo) *TodoResponse {
	return &TodoResponse{
		ID:                todo.ID,
		Title:             todo.Title,
		Description:       todo.Description,
		Completed:         todo.Completed,
		Priority:          string(todo.Priority),
		DueDate:           todo.DueDate,
		DueDatetime:       todo.DueDatetime,
		ReminderSent:      todo.ReminderSent,
		FollowupEmailSent: todo.FollowupEmailSent,
		IsOverdue:         todo.IsOverdue(s.now()),
		CreatedAt:         todo.CreatedAt,
		UpdatedAt:         todo.UpdatedAt,
	}
}
