package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
)

func TestEnrollmentServiceEnroll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	learner := env.profile(t, models.RoleLearner, "Linus")
	course := env.course(t, instructor, models.CourseStatusPublished)
	draft := env.course(t, instructor, models.CourseStatusDraft)

	_, err := env.enrollments.Enroll(ctx, instructor, dto.EnrollmentCreateRequest{CourseID: course.ID.String()})
	requireCode(t, err, ErrEnrollmentNotLearner)

	_, err = env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: "course"})
	requireCode(t, err, ErrEnrollmentValidation)

	_, err = env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: uuid.NewString()})
	requireCode(t, err, ErrEnrollmentCourseNotFound)

	_, err = env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: draft.ID.String()})
	requireCode(t, err, ErrCourseNotPublished)

	enrolled, err := env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: course.ID.String()})
	require.NoError(t, err)
	require.Equal(t, course.ID, enrolled.CourseID)
	require.Equal(t, course.Title, enrolled.CourseTitle)
	require.True(t, enrolled.EnrolledAt.Equal(baseTime))

	_, err = env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: course.ID.String()})
	requireCode(t, err, ErrEnrollmentDuplicate)

	mine, err := env.enrollments.ListMine(ctx, learner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "Grace", mine[0].InstructorName)
}

func TestActivityServiceListsOwnEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	learner := env.profile(t, models.RoleLearner, "Linus")
	course := env.course(t, instructor, models.CourseStatusPublished)

	_, err := env.enrollments.Enroll(ctx, learner, dto.EnrollmentCreateRequest{CourseID: course.ID.String()})
	require.NoError(t, err)

	_, err = env.activity.Record(ctx, ActivityEntry{
		ActorID:    learner.ID,
		Action:     "Profile.Viewed",
		EntityType: "profile",
		Metadata:   map[string]interface{}{"email": "linus@example.com", "page": 1},
	})
	require.NoError(t, err)

	_, err = env.activity.Record(ctx, ActivityEntry{ActorID: learner.ID, EntityType: "profile"})
	require.Error(t, err)

	logs, total, err := env.activity.ListForActor(ctx, learner.ID, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, logs, 2)

	var viewed models.ActivityLog
	for _, entry := range logs {
		if entry.Action == "profile.viewed" {
			viewed = entry
		}
	}
	require.Equal(t, "system", viewed.ActorRole)
	require.Equal(t, "***", viewed.Metadata["email"])

	others, total, err := env.activity.ListForActor(ctx, instructor.ID, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, others)
}
