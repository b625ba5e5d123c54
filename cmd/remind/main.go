package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/talhaaqma-byte/todoapp/internal/config"
	"github.com/talhaaqma-byte/todoapp/internal/database"
	"github.com/talhaaqma-byte/todoapp/internal/domain"
	"github.com/talhaaqma-byte/todoapp/internal/mail"
	"github.com/talhaaqma-byte/todoapp/internal/repository"
	"github.com/talhaaqma-byte/todoapp/internal/service"
)

// The reminder job runs as its own process on a fixed cadence, independent
// of the API server. With -once it performs a single tick and exits, which
// suits an external cron entry.
func main() {
	once := flag.Bool("once", false, "run a single tick and exit")
	flag.Parse()

	logger := log.StandardLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	dbService, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer dbService.Close()

	gormDB := dbService.GetDB()
	if err := gormDB.AutoMigrate(&domain.User{}, &domain.Todo{}); err != nil {
		logger.Fatalf("auto-migrate database: %v", err)
	}

	todoRepo := repository.NewGormTodoRepository(gormDB)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	reminderSvc := service.NewReminderService(todoRepo, mailer, logger)

	runTick := func(ctx context.Context) {
		tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := reminderSvc.Run(tickCtx); err != nil {
			logger.WithError(err).Error("reminder tick failed")
		}
	}

	if *once {
		runTick(context.Background())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := service.NewSchedulerService(logger)
	if _, err := scheduler.ScheduleInterval(cfg.ReminderInterval, func() {
		runTick(context.Background())
	}); err != nil {
		logger.Fatalf("schedule reminders: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Infof("Reminder scheduler started (every %s).", cfg.ReminderInterval)
	<-ctx.Done()
	logger.Info("Shutdown complete.")
}
