package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-classroom-api/internal/bootstrap"
	"github.com/noah-isme/gema-classroom-api/internal/config"
	"github.com/noah-isme/gema-classroom-api/internal/database"
	"github.com/noah-isme/gema-classroom-api/internal/handler"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
	"github.com/noah-isme/gema-classroom-api/internal/router"
	"github.com/noah-isme/gema-classroom-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := bootstrap.NewLogger(cfg, "api")

	infra, err := bootstrap.Open(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open infrastructure: %v", err)
	}
	defer infra.Close()

	db := infra.DB
	validate := service.NewValidator()

	assignmentRepo := repository.NewAssignmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Assignments: assignmentRepo,
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		Submissions: submissionRepo,
		Activity:    activityService,
		Events:      infra.Events,
		Validator:   validate,
	}, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Assignments: assignmentRepo,
		Enrollments: enrollmentRepo,
		Submissions: submissionRepo,
		Activity:    activityService,
		Events:      infra.Events,
		Validator:   validate,
	}, logger)
	gradeService := service.NewGradeService(enrollmentRepo, assignmentRepo, submissionRepo, logger)
	courseService := service.NewCourseService(courseRepo, profileRepo, enrollmentRepo, activityService, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, profileRepo, activityService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, gradeService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		HealthPinger:      database.Pinger(db),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		SubmitLimiter:     middleware.RateLimit("submissions", cfg.SubmissionRateLimitMax, cfg.SubmissionRateLimitWindow),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
