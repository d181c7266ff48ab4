package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
	"github.com/noah-isme/gema-classroom-api/internal/database"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

var baseTime = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type testEnv struct {
	db          *gorm.DB
	assignments AssignmentService
	submissions SubmissionService
	grades      GradeService
	courses     CourseService
	enrollments EnrollmentService
	activity    ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	assignmentRepo := repository.NewAssignmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	activity := NewActivityService(repository.NewActivityLogRepository(db), testLogger())
	validate := NewValidator()

	env := &testEnv{
		db: db,
		assignments: NewAssignmentService(AssignmentDependencies{
			Assignments: assignmentRepo,
			Courses:     courseRepo,
			Enrollments: enrollmentRepo,
			Submissions: submissionRepo,
			Activity:    activity,
			Validator:   validate,
		}, testLogger()),
		submissions: NewSubmissionService(SubmissionDependencies{
			Assignments: assignmentRepo,
			Enrollments: enrollmentRepo,
			Submissions: submissionRepo,
			Activity:    activity,
			Validator:   validate,
		}, testLogger()),
		grades:      NewGradeService(enrollmentRepo, assignmentRepo, submissionRepo, testLogger()),
		courses:     NewCourseService(courseRepo, profileRepo, enrollmentRepo, activity, validate, testLogger()),
		enrollments: NewEnrollmentService(enrollmentRepo, courseRepo, profileRepo, activity, validate, testLogger()),
		activity:    activity,
	}
	env.setNow(baseTime)
	return env
}

func (e *testEnv) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.assignments.(*assignmentService).now = clock
	e.submissions.(*submissionService).now = clock
	e.courses.(*courseService).now = clock
	e.enrollments.(*enrollmentService).now = clock
}

func (e *testEnv) profile(t *testing.T, role models.Role, name string) Actor {
	t.Helper()
	profile := models.Profile{FullName: name, Role: role}
	require.NoError(t, e.db.Create(&profile).Error)
	return Actor{ID: profile.ID, Role: string(role)}
}

func (e *testEnv) course(t *testing.T, instructor Actor, status models.CourseStatus) models.Course {
	t.Helper()
	course := models.Course{
		InstructorID: instructor.ID,
		Title:        "Distributed Systems",
		Description:  "Consensus and replication",
		Category:     "computer-science",
		Difficulty:   "advanced",
		Status:       status,
	}
	require.NoError(t, e.db.Omit("Instructor").Create(&course).Error)
	return course
}

func (e *testEnv) enroll(t *testing.T, course models.Course, learner Actor) {
	t.Helper()
	require.NoError(t, e.db.Omit("Course").Create(&models.Enrollment{CourseID: course.ID, LearnerID: learner.ID, EnrolledAt: baseTime}).Error)
}

type assignmentOpts struct {
	status            models.AssignmentStatus
	dueAt             time.Time
	weight            float64
	allowLate         bool
	allowResubmission bool
	title             string
}

func (e *testEnv) assignment(t *testing.T, course models.Course, opts assignmentOpts) models.Assignment {
	t.Helper()
	if opts.status == "" {
		opts.status = models.AssignmentStatusPublished
	}
	if opts.dueAt.IsZero() {
		opts.dueAt = baseTime.Add(24 * time.Hour)
	}
	if opts.title == "" {
		opts.title = "Raft log replication"
	}
	assignment := models.Assignment{
		CourseID:          course.ID,
		Title:             opts.title,
		Description:       "Implement leader election",
		DueAt:             opts.dueAt,
		ScoreWeight:       opts.weight,
		AllowLate:         opts.allowLate,
		AllowResubmission: opts.allowResubmission,
		Status:            opts.status,
	}
	if opts.status == models.AssignmentStatusPublished {
		published := baseTime.Add(-time.Hour)
		assignment.PublishedAt = &published
	}
	require.NoError(t, e.db.Omit("Course").Create(&assignment).Error)
	return assignment
}

func (e *testEnv) versions(t *testing.T, assignmentID, learnerID uuid.UUID) []models.Submission {
	t.Helper()
	var submissions []models.Submission
	require.NoError(t, e.db.Where("assignment_id = ? AND learner_id = ?", assignmentID, learnerID).Order("version ASC").Find(&submissions).Error)
	return submissions
}

func requireCode(t *testing.T, err error, expected *apperror.Error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, expected, "got %v", err)
}

func ptr[T any](value T) *T {
	return &value
}
