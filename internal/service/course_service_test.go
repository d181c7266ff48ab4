package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/models"
)

func TestCourseServiceCreateRequiresInstructor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	learner := env.profile(t, models.RoleLearner, "Linus")

	payload := dto.CourseCreateRequest{
		Title:       "Operating <em>Systems</em>",
		Description: "Processes and memory",
		Category:    "computer-science",
		Difficulty:  "intermediate",
	}

	_, err := env.courses.Create(ctx, learner, payload)
	requireCode(t, err, ErrCourseUnauthorized)

	_, err = env.courses.Create(ctx, Actor{ID: uuid.New(), Role: "instructor"}, payload)
	requireCode(t, err, ErrCourseUnauthorized)

	invalid := payload
	invalid.Difficulty = "expert"
	_, err = env.courses.Create(ctx, instructor, invalid)
	requireCode(t, err, ErrCourseValidation)

	created, err := env.courses.Create(ctx, instructor, payload)
	require.NoError(t, err)
	require.Equal(t, "Operating Systems", created.Title)
	require.Equal(t, models.CourseStatusDraft, created.Status)
	require.Equal(t, "Grace", created.InstructorName)
	require.Nil(t, created.PublishedAt)
}

func TestCourseServicePublishAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	stranger := env.profile(t, models.RoleInstructor, "Other")
	learner := env.profile(t, models.RoleLearner, "Linus")
	draft := env.course(t, instructor, models.CourseStatusDraft)

	_, err := env.courses.Get(ctx, learner.ID, draft.ID)
	requireCode(t, err, ErrCourseNotFound)

	ownerView, err := env.courses.Get(ctx, instructor.ID, draft.ID)
	require.NoError(t, err)
	require.False(t, ownerView.IsEnrolled)

	_, err = env.courses.Publish(ctx, stranger, draft.ID)
	requireCode(t, err, ErrCourseUnauthorized)

	published, err := env.courses.Publish(ctx, instructor, draft.ID)
	require.NoError(t, err)
	require.Equal(t, models.CourseStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	_, err = env.courses.Publish(ctx, instructor, draft.ID)
	requireCode(t, err, ErrCourseInvalidTransition)

	env.enroll(t, draft, learner)
	learnerView, err := env.courses.Get(ctx, learner.ID, draft.ID)
	require.NoError(t, err)
	require.True(t, learnerView.IsEnrolled)
	require.Equal(t, int64(1), learnerView.EnrollmentCount)
}

func TestCourseServiceListShowsPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	env.course(t, instructor, models.CourseStatusPublished)
	env.course(t, instructor, models.CourseStatusPublished)
	env.course(t, instructor, models.CourseStatusDraft)

	items, meta, err := env.courses.List(ctx, dto.CourseListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, dto.PaginationMeta{Page: 1, PageSize: 20, TotalItems: 2}, meta)

	items, meta, err = env.courses.List(ctx, dto.CourseListQuery{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(2), meta.TotalItems)

	_, _, err = env.courses.List(ctx, dto.CourseListQuery{Sort: "random"})
	requireCode(t, err, ErrCourseValidation)

	mine, err := env.courses.ListMine(ctx, instructor.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
}

func TestCourseServiceUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	instructor := env.profile(t, models.RoleInstructor, "Grace")
	draft := env.course(t, instructor, models.CourseStatusDraft)
	live := env.course(t, instructor, models.CourseStatusPublished)

	updated, err := env.courses.Update(ctx, instructor, draft.ID, dto.CourseUpdateRequest{Title: ptr("Networks"), Difficulty: ptr("beginner")})
	require.NoError(t, err)
	require.Equal(t, "Networks", updated.Title)
	require.Equal(t, "beginner", updated.Difficulty)

	_, err = env.courses.Update(ctx, instructor, draft.ID, dto.CourseUpdateRequest{})
	requireCode(t, err, ErrCourseValidation)

	requireCode(t, env.courses.Delete(ctx, instructor, live.ID), ErrCourseCannotDeletePublished)

	env.assignment(t, draft, assignmentOpts{status: models.AssignmentStatusDraft})
	require.NoError(t, env.courses.Delete(ctx, instructor, draft.ID))

	_, err = env.courses.Get(ctx, instructor.ID, draft.ID)
	requireCode(t, err, ErrCourseNotFound)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Assignment{}).Where("course_id = ?", draft.ID).Count(&remaining).Error)
	require.Zero(t, remaining)
}
