package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/noah-isme/gema-classroom-api/internal/bootstrap"
	"github.com/noah-isme/gema-classroom-api/internal/config"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
	"github.com/noah-isme/gema-classroom-api/internal/scheduler"
	"github.com/noah-isme/gema-classroom-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := bootstrap.NewLogger(cfg, "scheduler")

	infra, err := bootstrap.Open(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open infrastructure: %v", err)
	}
	defer infra.Close()

	if infra.Redis == nil {
		logger.Warn().Msg("no redis configured, auto-close runs without a lock; run a single replica")
	}

	db := infra.DB
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		Assignments: repository.NewAssignmentRepository(db),
		Courses:     repository.NewCourseRepository(db),
		Enrollments: repository.NewEnrollmentRepository(db),
		Submissions: repository.NewSubmissionRepository(db),
		Events:      infra.Events,
	}, logger)

	job := scheduler.NewAutoCloser(assignments, infra.Redis, cfg.AutoCloseLockTTL, logger)
	runner, err := scheduler.Start(cfg.AutoCloseSchedule, job, cfg.AutoCloseLockTTL)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	logger.Info().Str("schedule", cfg.AutoCloseSchedule).Dur("lock_ttl", cfg.AutoCloseLockTTL).Msg("auto-close scheduler started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	<-runner.Stop().Done()
	logger.Info().Msg("scheduler stopped")
}
