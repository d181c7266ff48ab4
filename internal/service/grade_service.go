package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/repository"
)

// MaxPossibleScore is the ceiling of a course total when every weight adds up to 100.
const MaxPossibleScore = 100.0

// GradeService computes learner grade sheets. Nothing is cached; every call rereads the store.
type GradeService interface {
	GetMyGrades(ctx context.Context, learnerID uuid.UUID) (dto.MyGradesResponse, error)
}

type gradeService struct {
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewGradeService constructs the grade aggregation service.
func NewGradeService(enrollments repository.EnrollmentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, logger zerolog.Logger) GradeService {
	return &gradeService{
		enrollments: enrollments,
		assignments: assignments,
		submissions: submissions,
		tracer:      otel.Tracer("github.com/noah-isme/gema-classroom-api/internal/service/grade"),
		logger:      logger.With().Str("component", "grade_service").Logger(),
	}
}

func (s *gradeService) GetMyGrades(ctx context.Context, learnerID uuid.UUID) (dto.MyGradesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grades.my_grades", trace.WithAttributes(
		attribute.String("grades.learner_id", learnerID.String()),
	))
	defer span.End()

	enrollments, err := s.enrollments.ListByLearner(ctx, learnerID)
	if err != nil {
		return dto.MyGradesResponse{}, failSpan(span, "enrollment_lookup_failed", err)
	}

	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	assignments, err := s.assignments.ListVisibleByCourses(ctx, courseIDs)
	if err != nil {
		return dto.MyGradesResponse{}, failSpan(span, "assignment_lookup_failed", err)
	}

	assignmentIDs := make([]uuid.UUID, 0, len(assignments))
	byCourse := make(map[uuid.UUID][]models.Assignment, len(courseIDs))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
		byCourse[assignment.CourseID] = append(byCourse[assignment.CourseID], assignment)
	}

	latest, err := s.submissions.LatestForLearner(ctx, learnerID, assignmentIDs)
	if err != nil {
		return dto.MyGradesResponse{}, failSpan(span, "submission_lookup_failed", err)
	}

	courses := make([]dto.CourseGradeSummary, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courses = append(courses, SummarizeCourseGrades(enrollment.Course, byCourse[enrollment.CourseID], latest))
	}

	span.SetAttributes(attribute.Int("grades.courses", len(courses)))
	return dto.MyGradesResponse{Courses: courses}, nil
}

// SummarizeCourseGrades folds a course's visible assignments and the learner's latest
// submissions into a weighted total. TotalScore stays nil until at least one assignment is graded.
func SummarizeCourseGrades(course models.Course, assignments []models.Assignment, latest map[uuid.UUID]models.Submission) dto.CourseGradeSummary {
	summary := dto.CourseGradeSummary{
		CourseID:         course.ID,
		CourseTitle:      course.Title,
		InstructorName:   course.Instructor.FullName,
		MaxPossibleScore: MaxPossibleScore,
		Assignments:      make([]dto.AssignmentGradeItem, 0, len(assignments)),
	}

	var total float64
	for _, assignment := range assignments {
		if !assignment.Status.VisibleToLearners() {
			continue
		}
		summary.TotalAssignments++

		var submission *models.Submission
		if found, ok := latest[assignment.ID]; ok {
			submission = &found
			if found.IsGraded() {
				summary.GradedAssignments++
				total += *found.Score * assignment.ScoreWeight / 100
			}
		}

		summary.Assignments = append(summary.Assignments, dto.NewAssignmentGradeItem(assignment, submission))
	}

	if summary.GradedAssignments > 0 {
		summary.TotalScore = &total
	}

	return summary
}
