package service

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
)

// Assignment lifecycle failures.
var (
	ErrAssignmentNotFound                  = apperror.New(http.StatusNotFound, "ASSIGNMENT_NOT_FOUND", "assignment not found")
	ErrAssignmentCourseNotFound            = apperror.New(http.StatusNotFound, "ASSIGNMENT_COURSE_NOT_FOUND", "course not found")
	ErrAssignmentNotPublished              = apperror.New(http.StatusNotFound, "ASSIGNMENT_NOT_PUBLISHED", "assignment is not published")
	ErrAssignmentUnauthorized              = apperror.New(http.StatusForbidden, "ASSIGNMENT_UNAUTHORIZED_ACCESS", "only the course instructor can manage this assignment")
	ErrAssignmentNotEnrolled               = apperror.New(http.StatusForbidden, "ASSIGNMENT_NOT_ENROLLED", "learner is not enrolled in this course")
	ErrAssignmentCannotEditClosed          = apperror.New(http.StatusConflict, "ASSIGNMENT_CANNOT_EDIT_CLOSED", "closed assignments cannot be edited")
	ErrAssignmentCannotDeleteClosed        = apperror.New(http.StatusConflict, "ASSIGNMENT_CANNOT_DELETE_CLOSED", "closed assignments cannot be deleted")
	ErrAssignmentHasSubmissions            = apperror.New(http.StatusConflict, "ASSIGNMENT_HAS_SUBMISSIONS", "assignments with submissions cannot be deleted")
	ErrAssignmentInvalidTransition         = apperror.New(http.StatusConflict, "ASSIGNMENT_INVALID_TRANSITION", "assignment cannot move to the requested status")
	ErrAssignmentValidation                = apperror.New(http.StatusBadRequest, "ASSIGNMENT_VALIDATION_ERROR", "invalid assignment payload")
	ErrAssignmentMissingRequiredFields     = apperror.New(http.StatusBadRequest, "ASSIGNMENT_MISSING_REQUIRED_FIELDS", "assignment is missing required fields")
	ErrAssignmentPastDueDate               = apperror.New(http.StatusBadRequest, "ASSIGNMENT_PAST_DUE_DATE", "due date must be in the future to publish")
	ErrAssignmentPublishedFieldRestriction = apperror.New(http.StatusBadRequest, "ASSIGNMENT_PUBLISHED_FIELD_RESTRICTION", "only title and description can change after publishing")
)

// Submission and grading failures.
var (
	ErrSubmissionAssignmentNotFound     = apperror.New(http.StatusNotFound, "SUBMISSION_ASSIGNMENT_NOT_FOUND", "assignment not found")
	ErrSubmissionNotFound               = apperror.New(http.StatusNotFound, "SUBMISSION_NOT_FOUND", "submission not found")
	ErrSubmissionUnauthorized           = apperror.New(http.StatusForbidden, "SUBMISSION_UNAUTHORIZED", "only the course instructor can review submissions")
	ErrSubmissionNotEnrolled            = apperror.New(http.StatusForbidden, "SUBMISSION_NOT_ENROLLED", "learner is not enrolled in this course")
	ErrSubmissionStateConflict          = apperror.New(http.StatusConflict, "SUBMISSION_STATE_CONFLICT", "submission changed since it was loaded")
	ErrSubmissionValidation             = apperror.New(http.StatusBadRequest, "SUBMISSION_VALIDATION_ERROR", "invalid submission payload")
	ErrSubmissionScoreOutOfRange        = apperror.New(http.StatusBadRequest, "SUBMISSION_SCORE_OUT_OF_RANGE", "score must be between 0 and 100")
	ErrSubmissionFeedbackRequired       = apperror.New(http.StatusBadRequest, "SUBMISSION_FEEDBACK_REQUIRED", "feedback is required")
	ErrSubmissionDeadlinePassed         = apperror.New(http.StatusBadRequest, "SUBMISSION_DEADLINE_PASSED", "the deadline has passed and late submissions are not allowed")
	ErrSubmissionResubmissionNotAllowed = apperror.New(http.StatusBadRequest, "SUBMISSION_RESUBMISSION_NOT_ALLOWED", "resubmission is not allowed for this assignment")
	ErrSubmissionAssignmentClosed       = apperror.New(http.StatusBadRequest, "SUBMISSION_ASSIGNMENT_CLOSED", "assignment is closed")
	ErrSubmissionAssignmentNotPublished = apperror.New(http.StatusBadRequest, "SUBMISSION_ASSIGNMENT_NOT_PUBLISHED", "assignment is not published")
)

// Course and enrollment failures.
var (
	ErrCourseNotFound              = apperror.New(http.StatusNotFound, "COURSE_NOT_FOUND", "course not found")
	ErrCourseUnauthorized          = apperror.New(http.StatusForbidden, "COURSE_UNAUTHORIZED_ACCESS", "only the course instructor can manage this course")
	ErrCourseInvalidTransition     = apperror.New(http.StatusConflict, "COURSE_INVALID_TRANSITION", "course cannot move to the requested status")
	ErrCourseCannotDeletePublished = apperror.New(http.StatusConflict, "COURSE_CANNOT_DELETE_PUBLISHED", "only draft courses can be deleted")
	ErrCourseValidation            = apperror.New(http.StatusBadRequest, "COURSE_VALIDATION_ERROR", "invalid course payload")
	ErrCourseNotPublished          = apperror.New(http.StatusBadRequest, "COURSE_NOT_PUBLISHED", "course is not open for enrollment")
	ErrEnrollmentCourseNotFound    = apperror.New(http.StatusNotFound, "ENROLLMENT_COURSE_NOT_FOUND", "course not found")
	ErrEnrollmentNotLearner        = apperror.New(http.StatusForbidden, "ENROLLMENT_NOT_LEARNER", "only learners can enroll in courses")
	ErrEnrollmentDuplicate         = apperror.New(http.StatusConflict, "ENROLLMENT_DUPLICATE", "already enrolled in this course")
	ErrEnrollmentValidation        = apperror.New(http.StatusBadRequest, "ENROLLMENT_VALIDATION_ERROR", "invalid enrollment payload")
)

// validationFailure attaches per-field validator tags to base.
func validationFailure(base *apperror.Error, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return base.WithDetails(details).Wrap(err)
	}
	return base.Wrap(err)
}
