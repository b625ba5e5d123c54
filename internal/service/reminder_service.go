package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
)

const (
	reminderWindow = time.Minute
	followupDelay  = 24 * time.Hour
)

// Mailer dispatches a single notification. A non-nil error means the
// notification was not delivered.
type Mailer interface {
	Send(to, subject, body string) error
}

// ReminderService advances todos through the one-way notification states
// NONE -> REMINDED -> FOLLOWED_UP. Each tick processes every eligible todo
// independently; a failed dispatch leaves the flag untouched so the todo is
// retried on a later tick, and never aborts the batch.
type ReminderService struct {
	todos  repository.TodoRepository
	mailer Mailer
	logger *log.Logger
	now    func() time.Time
}

// NewReminderService creates the reminder batch job.
func NewReminderService(todos repository.TodoRepository, mailer Mailer, logger *log.Logger) *ReminderService {
	return &ReminderService{todos: todos, mailer: mailer, logger: logger, now: time.Now}
}

// Run executes one scheduler tick: reminders for todos due within the last
// minute, then follow-ups for todos 24 hours past due. The returned error
// covers query failures only; per-todo dispatch failures are logged and
// recovered.
func (s *ReminderService) Run(ctx context.Context) error {
	now := s.now()

	due, err := s.todos.DueForReminder(ctx, now.Add(-reminderWindow), now)
	if err != nil {
		return err
	}
	for i := range due {
		s.sendReminder(ctx, &due[i])
	}

	overdue, err := s.todos.DueForFollowup(ctx, now.Add(-followupDelay))
	if err != nil {
		return err
	}
	for i := range overdue {
		s.sendFollowup(ctx, &overdue[i])
	}
	return nil
}

func (s *ReminderService) sendReminder(ctx context.Context, todo *domain.Todo) {
	subject := fmt.Sprintf("Reminder: %s", todo.Title)
	body := reminderBody(todo, "This is a reminder that your todo task is due now:",
		"Please complete this task as soon as possible.")

	if err := s.mailer.Send(todo.User.Email, subject, body); err != nil {
		s.logger.WithFields(log.Fields{"todo_id": todo.ID, "title": todo.Title}).
			WithError(err).Error("failed to send reminder")
		return
	}
	updated, err := s.todos.MarkReminderSent(ctx, todo.ID)
	if err != nil {
		s.logger.WithField("todo_id", todo.ID).WithError(err).Error("failed to record reminder")
		return
	}
	if updated {
		s.logger.WithFields(log.Fields{"todo_id": todo.ID, "title": todo.Title}).Info("reminder sent")
	}
}

func (s *ReminderService) sendFollowup(ctx context.Context, todo *domain.Todo) {
	subject := fmt.Sprintf("Action Required: Overdue Task - %s", todo.Title)
	body := reminderBody(todo, "Your todo task is overdue and still not completed:",
		"Please mark this task as complete if you have finished it, or update the due date if you need more time.")

	if err := s.mailer.Send(todo.User.Email, subject, body); err != nil {
		s.logger.WithFields(log.Fields{"todo_id": todo.ID, "title": todo.Title}).
			WithError(err).Error("failed to send follow-up")
		return
	}
	updated, err := s.todos.MarkFollowupSent(ctx, todo.ID)
	if err != nil {
		s.logger.WithField("todo_id", todo.ID).WithError(err).Error("failed to record follow-up")
		return
	}
	if updated {
		s.logger.WithFields(log.Fields{"todo_id": todo.ID, "title": todo.Title}).Info("follow-up sent")
	}
}

func reminderBody(todo *domain.Todo, intro, closing string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n%s\n\n", todo.User.Username, intro)
	fmt.Fprintf(&b, "Title: %s\n", todo.Title)
	fmt.Fprintf(&b, "Priority: %s\n", capitalize(string(todo.Priority)))
	if todo.DueDatetime != nil {
		fmt.Fprintf(&b, "Due Date & Time: %s\n", todo.DueDatetime.Format("January 2, 2006 at 3:04 PM"))
	}
	if todo.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", todo.Description)
	}
	fmt.Fprintf(&b, "\n%s\n\nBest regards,\nTodoApp Team\n", closing)
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
