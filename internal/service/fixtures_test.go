package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/database"
	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
	"github.com/noah-isme/ajarin-go-api/pkg/storage"
)

var fixedNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	fail    error
	seq     int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(ctx context.Context, name string, reader io.Reader) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return storage.Object{}, m.fail
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return storage.Object{}, err
	}
	m.seq++
	id := storage.JoinID("raw", fmt.Sprintf("ajarin/%d-%s", m.seq, name))
	m.objects[id] = payload
	return storage.Object{ID: id, URL: "https://cdn.test/" + id}, nil
}

func (m *memoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return errors.New("object not found")
	}
	delete(m.objects, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type stubActivityRecorder struct {
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{Action: entry.Action, EntityType: entry.EntityType, EntityID: entry.EntityID}, nil
}

func (s *stubActivityRecorder) actions() []string {
	out := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Action)
	}
	return out
}

type stubNotifier struct {
	sent []dto.NotificationCreateRequest
}

func (s *stubNotifier) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	s.sent = append(s.sent, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

// testEnv wires every engine against one in-memory database.
type testEnv struct {
	db       *gorm.DB
	storage  *memoryStorage
	activity *stubActivityRecorder
	notifier *stubNotifier

	users       repository.UserRepository
	courses     repository.CourseRepository
	materials   repository.MaterialRepository
	access      CourseAccess
	uploads     UploadService
	progress    ProgressService
	assignments AssignmentService
	submissions SubmissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupServiceDB(t)
	env := &testEnv{
		db:        db,
		storage:   newMemoryStorage(),
		activity:  &stubActivityRecorder{},
		notifier:  &stubNotifier{},
		users:     repository.NewUserRepository(db),
		courses:   repository.NewCourseRepository(db),
		materials: repository.NewMaterialRepository(db),
	}
	env.access = NewCourseAccess(env.courses)
	env.uploads = NewUploadService(env.storage, repository.NewUploadRepository(db), 1, testLogger())

	progress := NewProgressService(repository.NewProgressRepository(db), env.materials, env.access, testValidator(), testLogger())
	progress.(*progressService).now = func() time.Time { return fixedNow }
	env.progress = progress

	assignments := NewAssignmentService(repository.NewAssignmentRepository(db), env.access, env.uploads, env.activity, testValidator(), testLogger())
	assignments.(*assignmentService).now = func() time.Time { return fixedNow }
	env.assignments = assignments

	submissions := NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewAssignmentRepository(db),
		env.access,
		env.uploads,
		env.notifier,
		env.activity,
		testValidator(),
		testLogger(),
	)
	submissions.(*submissionService).now = func() time.Time { return fixedNow }
	env.submissions = submissions

	return env
}

func (e *testEnv) createUser(t *testing.T, name, role string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), &user))
	return user
}

func (e *testEnv) createCourse(t *testing.T, mentor models.User, materials int) (models.Course, []models.Material) {
	t.Helper()
	ctx := context.Background()
	course := models.Course{Title: "Practical Go", Slug: uuid.NewString(), Category: "programming", MentorID: mentor.ID, IsPublished: true}
	require.NoError(t, e.courses.Create(ctx, &course))

	items := make([]models.Material, 0, materials)
	for i := 0; i < materials; i++ {
		material := models.Material{CourseID: course.ID, Chapter: "Basics", Title: fmt.Sprintf("Lesson %d", i+1), Type: models.MaterialTypeVideo, Order: i + 1}
		require.NoError(t, e.materials.Create(ctx, &material))
		items = append(items, material)
	}
	return course, items
}

func (e *testEnv) enroll(t *testing.T, user models.User, course models.Course) {
	t.Helper()
	_, err := e.courses.Enroll(context.Background(), &models.Enrollment{UserID: user.ID, CourseID: course.ID, EnrolledAt: fixedNow})
	require.NoError(t, err)
}

func (e *testEnv) createAssignment(t *testing.T, course models.Course, maxAttempts int) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:    course.ID,
		Title:       "Build a CLI",
		MaxPoints:   100,
		MaxAttempts: maxAttempts,
		IsPublished: true,
		CreatedBy:   course.MentorID,
	}
	require.NoError(t, repository.NewAssignmentRepository(e.db).Create(context.Background(), &assignment))
	return assignment
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func float64Ptr(v float64) *float64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
