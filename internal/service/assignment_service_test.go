package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
)

func TestAssignmentServiceCreateAppliesDefaultsAndStoresQuestionFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	course, _ := env.createCourse(t, mentor, 1)

	file := newTestFileHeader(t, "brief.png", pngHeader)
	resp, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{
		Title:       "Write a parser",
		IsPublished: true,
	}, file)
	require.NoError(t, err)
	require.Equal(t, float64(100), resp.MaxPoints)
	require.Equal(t, 1, resp.MaxAttempts)
	require.NotNil(t, resp.QuestionFile)
	require.Equal(t, "image/png", resp.QuestionFile.MimeType)
	require.True(t, resp.IsAvailable)
	require.Equal(t, 1, env.storage.count())
}

func TestAssignmentServiceCreateRequiresOwnerAndValidDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	student := env.createUser(t, "Student", models.RoleStudent)
	course, _ := env.createCourse(t, mentor, 1)
	env.enroll(t, student, course)

	_, err := env.assignments.Create(ctx, student.ID, course.ID, dto.AssignmentCreateRequest{Title: "Sneaky"}, nil)
	require.ErrorIs(t, err, ErrNotCourseOwner)

	_, err = env.assignments.Create(ctx, mentor.ID, 9999, dto.AssignmentCreateRequest{Title: "Nowhere"}, nil)
	require.ErrorIs(t, err, ErrNotCourseOwner)

	_, err = env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Bad", PublishDate: "tomorrow"}, nil)
	require.Error(t, err)
}

func TestAssignmentServiceStudentsOnlySeeAvailableAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	student := env.createUser(t, "Student", models.RoleStudent)
	course, _ := env.createCourse(t, mentor, 1)
	env.enroll(t, student, course)

	open, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Open now", IsPublished: true}, nil)
	require.NoError(t, err)
	_, err = env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Hidden draft"}, nil)
	require.NoError(t, err)
	scheduled, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{
		Title:       "Next week",
		IsPublished: true,
		PublishDate: fixedNow.Add(7 * 24 * time.Hour).Format(time.RFC3339),
	}, nil)
	require.NoError(t, err)

	studentView, err := env.assignments.ListByCourse(ctx, student.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, studentView, 1)
	require.Equal(t, open.ID, studentView[0].ID)

	mentorView, err := env.assignments.ListByCourse(ctx, mentor.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, mentorView, 3)

	_, err = env.assignments.Get(ctx, student.ID, scheduled.ID)
	var unavailable *AssignmentUnavailableError
	require.ErrorAs(t, err, &unavailable)

	outsider := env.createUser(t, "Outsider", models.RoleStudent)
	_, err = env.assignments.ListByCourse(ctx, outsider.ID, course.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestAssignmentServiceUpdateReplacesQuestionFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	course, _ := env.createCourse(t, mentor, 1)

	created, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Versioned"}, newTestFileHeader(t, "v1.png", pngHeader))
	require.NoError(t, err)

	title := "Versioned brief"
	published := true
	updated, err := env.assignments.Update(ctx, mentor.ID, created.ID, dto.AssignmentUpdateRequest{
		Title:       &title,
		IsPublished: &published,
	}, newTestFileHeader(t, "v2.png", pngHeader))
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.True(t, updated.IsPublished)
	require.NotEqual(t, created.QuestionFile.ID, updated.QuestionFile.ID)
	require.Equal(t, 1, env.storage.count())
	require.Equal(t, []string{created.QuestionFile.ID}, env.storage.deleted)
}

func TestAssignmentServiceDeleteBlockedBySubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	student := env.createUser(t, "Student", models.RoleStudent)
	course, _ := env.createCourse(t, mentor, 1)
	env.enroll(t, student, course)
	actor := ActivityActor{ID: mentor.ID, Role: models.RoleMentor}

	created, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Graded work", IsPublished: true}, newTestFileHeader(t, "q.png", pngHeader))
	require.NoError(t, err)

	_, err = env.submissions.Submit(ctx, student.ID, created.ID, textSubmission("done"), nil)
	require.NoError(t, err)

	err = env.assignments.Delete(ctx, actor, created.ID)
	var inUse *AssignmentInUseError
	require.ErrorAs(t, err, &inUse)
	require.Equal(t, int64(1), inUse.Submissions)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, 1, env.storage.count())

	_, err = env.assignments.Get(ctx, mentor.ID, created.ID)
	require.NoError(t, err)
}

func TestAssignmentServiceDeleteRemovesQuestionFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentor := env.createUser(t, "Mentor", models.RoleMentor)
	course, _ := env.createCourse(t, mentor, 1)
	actor := ActivityActor{ID: mentor.ID, Role: models.RoleMentor}

	created, err := env.assignments.Create(ctx, mentor.ID, course.ID, dto.AssignmentCreateRequest{Title: "Scratch"}, newTestFileHeader(t, "q.png", pngHeader))
	require.NoError(t, err)

	require.NoError(t, env.assignments.Delete(ctx, actor, created.ID))
	require.Zero(t, env.storage.count())
	require.Equal(t, []string{models.ActivityAssignmentDeleted}, env.activity.actions())

	_, err = env.assignments.Get(ctx, mentor.ID, created.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	err = env.assignments.Delete(ctx, actor, created.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
