package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
)

type submissionFixture struct {
	env        *testEnv
	instructor Actor
	learner    Actor
	course     models.Course
}

func newSubmissionFixture(t *testing.T) submissionFixture {
	t.Helper()
	env := newTestEnv(t)
	instructor := env.profile(t, models.RoleInstructor, "Instructor")
	learner := env.profile(t, models.RoleLearner, "Learner")
	course := env.course(t, instructor, models.CourseStatusPublished)
	env.enroll(t, course, learner)
	return submissionFixture{env: env, instructor: instructor, learner: learner, course: course}
}

func (f submissionFixture) submit(assignmentID uuid.UUID, content string) (dto.SubmissionResponse, error) {
	return f.env.submissions.Submit(context.Background(), f.learner, dto.SubmissionCreateRequest{
		AssignmentID: assignmentID.String(),
		ContentText:  content,
	})
}

func TestSubmitBeforeAndAfterDeadlineWithResubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.env.assignment(t, f.course, assignmentOpts{dueAt: baseTime, allowLate: true, allowResubmission: true})

	f.env.setNow(baseTime.Add(-time.Hour))
	first, err := f.submit(assignment.ID, "first draft")
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)
	require.False(t, first.Late)
	require.True(t, first.IsLatest)
	require.Equal(t, models.SubmissionStatusSubmitted, first.Status)

	f.env.setNow(baseTime.Add(time.Hour))
	second, err := f.submit(assignment.ID, "second draft")
	require.NoError(t, err)
	require.Equal(t, 2, second.Version)
	require.True(t, second.Late)

	versions := f.env.versions(t, assignment.ID, f.learner.ID)
	require.Len(t, versions, 2)
	require.False(t, versions[0].IsLatest)
	require.Equal(t, "first draft", versions[0].ContentText)
	require.True(t, versions[1].IsLatest)
}

func TestSubmitRejectsResubmissionWhenDisabled(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.env.assignment(t, f.course, assignmentOpts{dueAt: baseTime, allowLate: true})

	f.env.setNow(baseTime.Add(-time.Hour))
	_, err := f.submit(assignment.ID, "only answer")
	require.NoError(t, err)

	f.env.setNow(baseTime.Add(time.Hour))
	_, err = f.submit(assignment.ID, "second answer")
	requireCode(t, err, ErrSubmissionResubmissionNotAllowed)

	versions := f.env.versions(t, assignment.ID, f.learner.ID)
	require.Len(t, versions, 1)
	require.True(t, versions[0].IsLatest)
}

func TestSubmitAfterDeadlineWithoutLateAllowance(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.env.assignment(t, f.course, assignmentOpts{dueAt: baseTime, allowResubmission: true})

	f.env.setNow(baseTime.Add(time.Minute))
	_, err := f.submit(assignment.ID, "too late")
	requireCode(t, err, ErrSubmissionDeadlinePassed)
	require.Empty(t, f.env.versions(t, assignment.ID, f.learner.ID))

	f.env.setNow(baseTime)
	onTime, err := f.submit(assignment.ID, "exactly on time")
	require.NoError(t, err)
	require.False(t, onTime.Late)
}

func TestSubmitIntakeFailures(t *testing.T) {
	f := newSubmissionFixture(t)
	outsider := f.env.profile(t, models.RoleLearner, "Outsider")
	published := f.env.assignment(t, f.course, assignmentOpts{})
	draft := f.env.assignment(t, f.course, assignmentOpts{status: models.AssignmentStatusDraft})
	closed := f.env.assignment(t, f.course, assignmentOpts{status: models.AssignmentStatusClosed})
	ctx := context.Background()

	_, err := f.env.submissions.Submit(ctx, outsider, dto.SubmissionCreateRequest{AssignmentID: published.ID.String(), ContentText: "hi"})
	requireCode(t, err, ErrSubmissionNotEnrolled)

	_, err = f.submit(draft.ID, "hi")
	requireCode(t, err, ErrSubmissionAssignmentNotPublished)

	_, err = f.submit(closed.ID, "hi")
	requireCode(t, err, ErrSubmissionAssignmentClosed)

	_, err = f.submit(uuid.New(), "hi")
	requireCode(t, err, ErrSubmissionAssignmentNotFound)

	_, err = f.submit(published.ID, "   ")
	requireCode(t, err, ErrSubmissionValidation)

	_, err = f.submit(published.ID, "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n")
	requireCode(t, err, ErrSubmissionValidation)

	_, err = f.env.submissions.Submit(ctx, f.learner, dto.SubmissionCreateRequest{AssignmentID: "not-a-uuid", ContentText: "hi"})
	requireCode(t, err, ErrSubmissionValidation)

	_, err = f.env.submissions.Submit(ctx, f.learner, dto.SubmissionCreateRequest{
		AssignmentID: published.ID.String(),
		ContentText:  "with link",
		ContentLink:  ptr("not a url"),
	})
	requireCode(t, err, ErrSubmissionValidation)

	withLink, err := f.env.submissions.Submit(ctx, f.learner, dto.SubmissionCreateRequest{
		AssignmentID: published.ID.String(),
		ContentText:  "see repository",
		ContentLink:  ptr("https://example.com/repo"),
	})
	require.NoError(t, err)
	require.NotNil(t, withLink.ContentLink)
	require.Equal(t, "https://example.com/repo", *withLink.ContentLink)
}

func TestReviewGradeThenRequestResubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	assignment := f.env.assignment(t, f.course, assignmentOpts{allowResubmission: true})

	submitted, err := f.submit(assignment.ID, "answer")
	require.NoError(t, err)

	graded, err := f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{
		Action:   string(ReviewActionGrade),
		Score:    ptr(85.0),
		Feedback: "Solid <script>alert(1)</script>work",
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)
	require.Equal(t, 85.0, *graded.Score)
	require.Equal(t, "Solid work", *graded.Feedback)
	require.NotNil(t, graded.GradedAt)
	require.Equal(t, f.instructor.ID, *graded.GradedBy)

	regraded, err := f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{
		Action:   string(ReviewActionGrade),
		Score:    ptr(90.0),
		Feedback: "Better after discussion",
	})
	require.NoError(t, err)
	require.Equal(t, 90.0, *regraded.Score)

	requested, err := f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{
		Action:   string(ReviewActionRequestResubmission),
		Feedback: "Please cover log compaction",
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusResubmissionRequired, requested.Status)
	require.Nil(t, requested.Score)
	require.Nil(t, requested.GradedAt)
	require.Nil(t, requested.GradedBy)
	require.Equal(t, "Please cover log compaction", *requested.Feedback)

	_, err = f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{
		Action:   string(ReviewActionRequestResubmission),
		Feedback: "Again",
	})
	requireCode(t, err, ErrSubmissionStateConflict)

	resubmitted, err := f.submit(assignment.ID, "answer with compaction")
	require.NoError(t, err)
	require.Equal(t, 2, resubmitted.Version)
	require.Equal(t, models.SubmissionStatusSubmitted, resubmitted.Status)
	require.Nil(t, resubmitted.Score)

	_, err = f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{
		Action:   string(ReviewActionGrade),
		Score:    ptr(70.0),
		Feedback: "Stale",
	})
	requireCode(t, err, ErrSubmissionStateConflict)
}

func TestReviewValidation(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	stranger := f.env.profile(t, models.RoleInstructor, "Stranger")
	assignment := f.env.assignment(t, f.course, assignmentOpts{})

	submitted, err := f.submit(assignment.ID, "answer")
	require.NoError(t, err)

	cases := []struct {
		name     string
		actor    Actor
		id       uuid.UUID
		payload  dto.SubmissionReviewRequest
		expected error
	}{
		{"unknown action", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "approve", Feedback: "ok"}, ErrSubmissionValidation},
		{"blank feedback", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Score: ptr(50.0), Feedback: "  "}, ErrSubmissionFeedbackRequired},
		{"missing score", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Feedback: "ok"}, ErrSubmissionScoreOutOfRange},
		{"score too high", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Score: ptr(100.5), Feedback: "ok"}, ErrSubmissionScoreOutOfRange},
		{"negative score", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Score: ptr(-1.0), Feedback: "ok"}, ErrSubmissionScoreOutOfRange},
		{"score on resubmission request", f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "request_resubmission", Score: ptr(10.0), Feedback: "ok"}, ErrSubmissionValidation},
		{"unknown submission", f.instructor, uuid.New(), dto.SubmissionReviewRequest{Action: "grade", Score: ptr(50.0), Feedback: "ok"}, ErrSubmissionNotFound},
		{"foreign instructor", stranger, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Score: ptr(50.0), Feedback: "ok"}, ErrSubmissionUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.env.submissions.Review(ctx, tc.actor, tc.id, tc.payload)
			require.ErrorIs(t, err, tc.expected)
		})
	}

	boundary, err := f.env.submissions.Review(ctx, f.instructor, submitted.ID, dto.SubmissionReviewRequest{Action: "grade", Score: ptr(100.0), Feedback: "perfect"})
	require.NoError(t, err)
	require.Equal(t, 100.0, *boundary.Score)
}

func TestListForInstructorShowsLatestVersions(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	second := f.env.profile(t, models.RoleLearner, "Second")
	f.env.enroll(t, f.course, second)
	assignment := f.env.assignment(t, f.course, assignmentOpts{allowResubmission: true})

	f.env.setNow(baseTime.Add(-2 * time.Hour))
	_, err := f.submit(assignment.ID, "v1")
	require.NoError(t, err)

	f.env.setNow(baseTime.Add(-time.Hour))
	_, err = f.env.submissions.Submit(ctx, second, dto.SubmissionCreateRequest{AssignmentID: assignment.ID.String(), ContentText: "other"})
	require.NoError(t, err)

	f.env.setNow(baseTime)
	_, err = f.submit(assignment.ID, "v2")
	require.NoError(t, err)

	list, err := f.env.submissions.ListForInstructor(ctx, f.instructor.ID, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, assignment.ID, list.Assignment.ID)
	require.Len(t, list.Submissions, 2)
	require.Equal(t, "v2", list.Submissions[0].ContentText)
	require.Equal(t, "Learner", list.Submissions[0].LearnerName)
	require.Equal(t, "other", list.Submissions[1].ContentText)

	_, err = f.env.submissions.ListForInstructor(ctx, second.ID, assignment.ID)
	requireCode(t, err, ErrSubmissionUnauthorized)
}

func TestConcurrentSubmitsKeepVersionChainGapless(t *testing.T) {
	f := newSubmissionFixture(t)
	assignment := f.env.assignment(t, f.course, assignmentOpts{allowResubmission: true})

	const attempts = 5
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submit(assignment.ID, "parallel answer")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrSubmissionStateConflict)
	}

	versions := f.env.versions(t, assignment.ID, f.learner.ID)
	require.Len(t, versions, succeeded)
	latest := 0
	for i, version := range versions {
		require.Equal(t, i+1, version.Version)
		if version.IsLatest {
			latest++
		}
	}
	require.NotZero(t, succeeded)
	require.Equal(t, 1, latest)
	require.True(t, versions[len(versions)-1].IsLatest)
}
