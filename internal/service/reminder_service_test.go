package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
)

type sentMail struct {
	to      string
	subject string
}

// fakeMailer records deliveries and can be told to fail for a recipient.
type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.failFor[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

type reminderFixture struct {
	db     *gorm.DB
	repo   repository.TodoRepository
	mailer *fakeMailer
	svc    *ReminderService
	now    time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	db := newTestDB(t)
	quiet := log.New()
	quiet.SetOutput(io.Discard)

	f := &reminderFixture{
		db:     db,
		repo:   repository.NewGormTodoRepository(db),
		mailer: &fakeMailer{failFor: map[string]bool{}},
		now:    time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewReminderService(f.repo, f.mailer, quiet)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *reminderFixture) run(t *testing.T) {
	t.Helper()
	if err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("scheduler run: %v", err)
	}
}

func (f *reminderFixture) reload(t *testing.T, id uint) *domain.Todo {
	t.Helper()
	var todo domain.Todo
	if err := f.db.First(&todo, id).Error; err != nil {
		t.Fatalf("reload todo %d: %v", id, err)
	}
	return &todo
}

func TestReminderThenFollowupScenario(t *testing.T) {
	f := newReminderFixture(t)
	user := createTestUser(t, f.db, "alice")

	due := f.now
	todo := &domain.Todo{UserID: user.ID, Title: "Pay rent", Priority: domain.PriorityHigh, DueDatetime: &due}
	if err := f.repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 30 seconds after the due time: reminder goes out.
	f.now = due.Add(30 * time.Second)
	f.run(t)

	got := f.reload(t, todo.ID)
	if !got.ReminderSent || got.FollowupEmailSent {
		t.Fatalf("after first tick: reminder_sent=%v followup=%v", got.ReminderSent, got.FollowupEmailSent)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.mailer.sent))
	}
	if f.mailer.sent[0].to != "alice@example.com" || f.mailer.sent[0].subject != "Reminder: Pay rent" {
		t.Fatalf("unexpected reminder mail: %+v", f.mailer.sent[0])
	}

	// 24 hours later: follow-up goes out.
	f.now = due.Add(30*time.Second + 24*time.Hour)
	f.run(t)

	got = f.reload(t, todo.ID)
	if !got.FollowupEmailSent {
		t.Fatalf("follow-up flag not set after 24h tick")
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("expected two notifications total, got %d", len(f.mailer.sent))
	}
	if f.mailer.sent[1].subject != "Action Required: Overdue Task - Pay rent" {
		t.Fatalf("unexpected follow-up subject: %q", f.mailer.sent[1].subject)
	}
}

func TestReminderIdempotentWithinWindow(t *testing.T) {
	f := newReminderFixture(t)
	user := createTestUser(t, f.db, "alice")

	due := f.now.Add(-10 * time.Second)
	todo := &domain.Todo{UserID: user.ID, Title: "once only", Priority: domain.PriorityMedium, DueDatetime: &due}
	if err := f.repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t)
	f.run(t)

	if len(f.mailer.sent) != 1 {
		t.Fatalf("running twice in the same window must send one reminder, got %d", len(f.mailer.sent))
	}
}

func TestReminderFailureRetriedAndIsolated(t *testing.T) {
	f := newReminderFixture(t)
	alice := createTestUser(t, f.db, "alice")
	bob := createTestUser(t, f.db, "bob")

	due := f.now.Add(-10 * time.Second)
	broken := &domain.Todo{UserID: alice.ID, Title: "broken", Priority: domain.PriorityMedium, DueDatetime: &due}
	fine := &domain.Todo{UserID: bob.ID, Title: "fine", Priority: domain.PriorityMedium, DueDatetime: &due}
	for _, todo := range []*domain.Todo{broken, fine} {
		if err := f.repo.Create(context.Background(), todo); err != nil {
			t.Fatalf("create %q: %v", todo.Title, err)
		}
	}

	f.mailer.failFor["alice@example.com"] = true
	f.run(t)

	if got := f.reload(t, broken.ID); got.ReminderSent {
		t.Fatalf("failed dispatch must leave reminder_sent false")
	}
	if got := f.reload(t, fine.ID); !got.ReminderSent {
		t.Fatalf("one failure must not stop the rest of the batch")
	}

	// The mailer recovers; the todo is still in the window and is retried.
	f.mailer.failFor["alice@example.com"] = false
	f.run(t)

	if got := f.reload(t, broken.ID); !got.ReminderSent {
		t.Fatalf("recovered dispatch should mark the reminder on the next tick")
	}
}

func TestFollowupRequiresReminderFirst(t *testing.T) {
	f := newReminderFixture(t)
	user := createTestUser(t, f.db, "alice")

	// Due long ago but never reminded (the narrow window was missed).
	due := f.now.Add(-48 * time.Hour)
	todo := &domain.Todo{UserID: user.ID, Title: "missed entirely", Priority: domain.PriorityMedium, DueDatetime: &due}
	if err := f.repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t)

	got := f.reload(t, todo.ID)
	if got.ReminderSent || got.FollowupEmailSent {
		t.Fatalf("a todo outside the reminder window gets neither notification: %+v", got)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail expected, got %d", len(f.mailer.sent))
	}
}

func TestCompletedTodoGetsNoFollowup(t *testing.T) {
	f := newReminderFixture(t)
	user := createTestUser(t, f.db, "alice")

	due := f.now.Add(-25 * time.Hour)
	todo := &domain.Todo{UserID: user.ID, Title: "finished late", Priority: domain.PriorityMedium, DueDatetime: &due, ReminderSent: true, Completed: true}
	if err := f.repo.Create(context.Background(), todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.run(t)

	if got := f.reload(t, todo.ID); got.FollowupEmailSent {
		t.Fatalf("completed todo must not receive a follow-up")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail expected, got %d", len(f.mailer.sent))
	}
}
