package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.Material{},
		&models.MaterialProgress{},
		&models.Assignment{},
		&models.AssignmentSubmission{},
		&models.Certificate{},
		&models.Notification{},
		&models.DiscussionThread{},
		&models.DiscussionReply{},
	))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, materials int) (models.User, models.Course, []models.Material) {
	t.Helper()
	mentor := models.User{Name: "Mentor", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: models.RoleMentor}
	require.NoError(t, db.Create(&mentor).Error)
	course := models.Course{Title: "Go", Slug: uuid.NewString(), MentorID: mentor.ID}
	require.NoError(t, db.Omit("Mentor").Create(&course).Error)

	items := make([]models.Material, 0, materials)
	for i := 0; i < materials; i++ {
		material := models.Material{CourseID: course.ID, Title: fmt.Sprintf("Part %d", i+1), Type: models.MaterialTypeVideo, Order: i + 1}
		require.NoError(t, db.Create(&material).Error)
		items = append(items, material)
	}
	return mentor, course, items
}

func TestProgressRepositoryGetOrCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	_, course, materials := seedCourse(t, db, 1)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, 42, materials[0].ID, course.ID)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, 42, materials[0].ID, course.ID)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.False(t, second.IsCompleted)

	var count int64
	require.NoError(t, db.Model(&models.MaterialProgress{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestProgressRepositoryMarkCompletedKeepsFirstTimestamp(t *testing.T) {
	db := setupTestDB(t)
	_, course, materials := seedCourse(t, db, 1)
	repo := NewProgressRepository(db)
	ctx := context.Background()

	record, err := repo.GetOrCreate(ctx, 7, materials[0].ID, course.ID)
	require.NoError(t, err)

	firstAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	completed, err := repo.MarkCompleted(ctx, record.ID, firstAt)
	require.NoError(t, err)
	require.True(t, completed.IsCompleted)
	require.NotNil(t, completed.MarkedCompletedAt)

	again, err := repo.MarkCompleted(ctx, record.ID, firstAt.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, again.MarkedCompletedAt.Equal(*completed.MarkedCompletedAt))

	cleared, err := repo.MarkIncomplete(ctx, record.ID, firstAt.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, cleared.IsCompleted)
	require.Nil(t, cleared.MarkedCompletedAt)
}

func TestProgressRepositoryCountsOnlyMaterialsStillInCourse(t *testing.T) {
	db := setupTestDB(t)
	_, course, materials := seedCourse(t, db, 2)
	repo := NewProgressRepository(db)
	ctx := context.Background()
	now := time.Now()

	for _, material := range materials {
		record, err := repo.GetOrCreate(ctx, 9, material.ID, course.ID)
		require.NoError(t, err)
		_, err = repo.MarkCompleted(ctx, record.ID, now)
		require.NoError(t, err)
	}

	require.NoError(t, db.Delete(&models.Material{}, materials[1].ID).Error)

	count, err := repo.CountCompletedInCourse(ctx, 9, course.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSubmissionRepositoryUpdateDetectsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	mentor, course, _ := seedCourse(t, db, 0)
	assignment := models.Assignment{CourseID: course.ID, Title: "Essay", MaxAttempts: 1, IsPublished: true, CreatedBy: mentor.ID}
	require.NoError(t, db.Omit("Course").Create(&assignment).Error)

	repo := NewSubmissionRepository(db)
	ctx := context.Background()
	submittedAt := time.Now()
	submission := models.AssignmentSubmission{
		AssignmentID:  assignment.ID,
		StudentID:     99,
		CourseID:      course.ID,
		AttemptNumber: 1,
		Content:       models.SubmissionContent{Type: models.ContentTypeText, Text: "first"},
		Status:        models.SubmissionStatusSubmitted,
		SubmittedAt:   &submittedAt,
	}
	require.NoError(t, repo.Create(ctx, &submission))
	require.Equal(t, 1, submission.Version)

	stale, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)

	submission.Content.Text = "second"
	require.NoError(t, repo.Update(ctx, &submission))
	require.Equal(t, 2, submission.Version)

	stale.Content.Text = "lost update"
	err = repo.Update(ctx, &stale)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.Equal(t, 1, stale.Version)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, "second", stored.Content.Text)
}

func TestSubmissionRepositoryRejectsScoreWithoutGradedStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	score := 80.0
	submission := models.AssignmentSubmission{
		AssignmentID:  1,
		StudentID:     1,
		CourseID:      1,
		AttemptNumber: 1,
		Content:       models.SubmissionContent{Type: models.ContentTypeText, Text: "x"},
		Status:        models.SubmissionStatusSubmitted,
		Grading:       models.Grading{Score: &score},
	}

	err := repo.Create(context.Background(), &submission)
	require.ErrorIs(t, err, models.ErrGradingWithoutGradedStatus)
}

func TestCertificateRepositoryCreateIfAbsentReturnsExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCertificateRepository(db)
	ctx := context.Background()
	now := time.Now()

	build := func() *models.Certificate {
		return &models.Certificate{
			PublicID:             uuid.NewString(),
			CertificateNumber:    uuid.NewString(),
			UserID:               5,
			CourseID:             8,
			RecipientName:        "Student",
			CourseTitle:          "Go",
			MaterialCount:        2,
			DurationHours:        1,
			CompletionPercentage: 100,
			CompletionDate:       now,
			IssuedAt:             now,
			Status:               models.CertificateStatusActive,
		}
	}

	first, created, err := repo.CreateIfAbsent(ctx, build())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, build())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.PublicID, second.PublicID)

	require.NoError(t, repo.IncrementCounter(ctx, first.ID, "view_count"))
	stored, err := repo.GetByPublicID(ctx, first.PublicID)
	require.NoError(t, err)
	require.Equal(t, int64(1), stored.ViewCount)

	require.Error(t, repo.IncrementCounter(ctx, first.ID, "status"))
}

func TestCourseRepositoryEnrollIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	_, course, _ := seedCourse(t, db, 0)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	created, err := repo.Enroll(ctx, &models.Enrollment{UserID: 3, CourseID: course.ID, EnrolledAt: time.Now()})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.Enroll(ctx, &models.Enrollment{UserID: 3, CourseID: course.ID, EnrolledAt: time.Now()})
	require.NoError(t, err)
	require.False(t, created)

	enrolled, err := repo.IsEnrolled(ctx, 3, course.ID)
	require.NoError(t, err)
	require.True(t, enrolled)
}

func TestMaterialRepositoryOrdersByOrderThenID(t *testing.T) {
	db := setupTestDB(t)
	_, course, _ := seedCourse(t, db, 0)
	repo := NewMaterialRepository(db)
	ctx := context.Background()

	second := models.Material{CourseID: course.ID, Title: "B", Chapter: "1", Order: 2}
	firstA := models.Material{CourseID: course.ID, Title: "A1", Chapter: "2", Order: 1}
	firstB := models.Material{CourseID: course.ID, Title: "A2", Chapter: "1", Order: 1}
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.Create(ctx, &firstA))
	require.NoError(t, repo.Create(ctx, &firstB))

	materials, err := repo.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, materials, 3)
	require.Equal(t, []string{"A1", "A2", "B"}, []string{materials[0].Title, materials[1].Title, materials[2].Title})

	next, err := repo.NextOrder(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 3, next)
}
