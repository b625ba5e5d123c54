package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
)

// priorityRank orders priorities by meaning (low < medium < high) instead
// of alphabetically.
const priorityRank = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 2 END"

// QueryFilters narrows and orders a user's todo list. All fields are
// optional and compose conjunctively.
type QueryFilters struct {
	Completed *bool
	Priority  domain.Priority
	Search    string
	SortBy    string
}

// TodoRepository defines the data operations for todos. Every method that
// touches a specific record is scoped to the owning user; an id belonging
// to someone else behaves exactly like a missing id.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, userID, id uint) (*domain.Todo, error)
	List(ctx context.Context, userID uint, filters QueryFilters) ([]domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, userID, id uint) error
	ToggleComplete(ctx context.Context, userID, id uint) (*domain.Todo, error)
	Stats(ctx context.Context, userID uint) (*domain.Stats, error)

	// Scheduler queries and guarded flag writes.
	DueForReminder(ctx context.Context, from, to time.Time) ([]domain.Todo, error)
	DueForFollowup(ctx context.Context, cutoff time.Time) ([]domain.Todo, error)
	MarkReminderSent(ctx context.Context, id uint) (bool, error)
	MarkFollowupSent(ctx context.Context, id uint) (bool, error)
}

type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a GORM-backed todo repository.
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) FindByID(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find todo %d: %w", id, err)
	}
	return &todo, nil
}

func (r *gormTodoRepository) List(ctx context.Context, userID uint, filters QueryFilters) ([]domain.Todo, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if filters.Completed != nil {
		q = q.Where("completed = ?", *filters.Completed)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filters.Search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	q = q.Order(orderClause(filters.SortBy))

	var todos []domain.Todo
	if err := q.Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// orderClause maps a sort_by parameter to an ORDER BY expression.
// Unrecognized keys fall back to the default newest-first ordering.
func orderClause(sortBy string) string {
	switch sortBy {
	case "created_at":
		return "created_at ASC"
	case "-created_at":
		return "created_at DESC"
	case "due_date":
		return "due_date ASC"
	case "-due_date":
		return "due_date DESC"
	case "priority":
		return priorityRank + " ASC"
	case "-priority":
		return priorityRank + " DESC"
	default:
		return "created_at DESC"
	}
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Update persists a user edit. The notification flags belong to the
// scheduler and are omitted from the write, so an edit racing a scheduler
// tick cannot revert a flag that was set after this record was loaded.
func (r *gormTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	err := r.db.WithContext(ctx).Model(todo).
		Select("*").Omit("reminder_sent", "followup_email_sent", "created_at").
		Updates(todo).Error
	if err != nil {
		return fmt.Errorf("update todo %d: %w", todo.ID, err)
	}
	return nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&domain.Todo{})
	if res.Error != nil {
		return fmt.Errorf("delete todo %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ToggleComplete flips the completed flag in a single UPDATE so concurrent
// toggles cannot lose writes, then reloads the record.
func (r *gormTodoRepository) ToggleComplete(ctx context.Context, userID, id uint) (*domain.Todo, error) {
	res := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("completed", gorm.Expr("NOT completed"))
	if res.Error != nil {
		return nil, fmt.Errorf("toggle todo %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, userID, id)
}

func (r *gormTodoRepository) Stats(ctx context.Context, userID uint) (*domain.Stats, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&domain.Todo{}).Where("user_id = ?", userID)
	}

	var stats domain.Stats
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}
	if err := base().Where("completed = ?", true).Count(&stats.Completed).Error; err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}
	stats.Pending = stats.Total - stats.Completed

	counts := []struct {
		priority domain.Priority
		dest     *int64
	}{
		{domain.PriorityHigh, &stats.HighPriority},
		{domain.PriorityMedium, &stats.MediumPriority},
		{domain.PriorityLow, &stats.LowPriority},
	}
	for _, c := range counts {
		if err := base().Where("priority = ?", c.priority).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("count %s priority: %w", c.priority, err)
		}
	}
	return &stats, nil
}

// DueForReminder returns todos whose due time fell inside [from, to] and
// that have not been reminded yet. The owning user is preloaded for the
// notification address.
func (r *gormTodoRepository) DueForReminder(ctx context.Context, from, to time.Time) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.WithContext(ctx).Preload("User").
		Where("due_datetime IS NOT NULL AND completed = ? AND reminder_sent = ?", false, false).
		Where("due_datetime >= ? AND due_datetime <= ?", from, to).
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	return todos, nil
}

// DueForFollowup returns reminded, still-incomplete todos whose due time is
// at or before the cutoff (24 hours in the past at call time).
func (r *gormTodoRepository) DueForFollowup(ctx context.Context, cutoff time.Time) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.WithContext(ctx).Preload("User").
		Where("due_datetime IS NOT NULL AND completed = ?", false).
		Where("reminder_sent = ? AND followup_email_sent = ?", true, false).
		Where("due_datetime <= ?", cutoff).
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("query due followups: %w", err)
	}
	return todos, nil
}

// MarkReminderSent sets reminder_sent in a single guarded UPDATE. The WHERE
// clause re-checks the preconditions, so a stale or duplicate call is a
// no-op and the flag stays monotone.
func (r *gormTodoRepository) MarkReminderSent(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND due_datetime IS NOT NULL AND completed = ? AND reminder_sent = ?", id, false, false).
		Update("reminder_sent", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark reminder sent %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkFollowupSent sets followup_email_sent under the same guarded-UPDATE
// scheme; it can only succeed after the reminder flag is already true.
func (r *gormTodoRepository) MarkFollowupSent(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Todo{}).
		Where("id = ? AND completed = ? AND reminder_sent = ? AND followup_email_sent = ?", id, false, true, false).
		Update("followup_email_sent", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark followup sent %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
