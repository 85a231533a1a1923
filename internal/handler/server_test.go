package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ajarin-go-api/internal/config"
	"github.com/noah-isme/ajarin-go-api/internal/database"
	"github.com/noah-isme/ajarin-go-api/internal/handler"
	"github.com/noah-isme/ajarin-go-api/internal/middleware"
	"github.com/noah-isme/ajarin-go-api/internal/models"
	"github.com/noah-isme/ajarin-go-api/internal/repository"
	"github.com/noah-isme/ajarin-go-api/internal/router"
	"github.com/noah-isme/ajarin-go-api/internal/service"
	"github.com/noah-isme/ajarin-go-api/pkg/storage"
)

const testJWTSecret = "handler-test-secret"

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
	seq     int
}

func (m *memoryStorage) Upload(_ context.Context, name string, reader io.Reader) (storage.Object, error) {
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

func (m *memoryStorage) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return errors.New("object not found")
	}
	delete(m.objects, id)
	return nil
}

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	storage *memoryStorage
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Message string                 `json:"message"`
	Meta    json.RawMessage        `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

type account struct {
	ID    uint
	Token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	files := &memoryStorage{objects: make(map[string][]byte)}

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	materials := repository.NewMaterialRepository(db)
	assignments := repository.NewAssignmentRepository(db)

	access := service.NewCourseAccess(courses)
	uploads := service.NewUploadService(files, repository.NewUploadRepository(db), 1, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "ajarin.test", validate, logger)
	auth := service.NewAuthService(users, testJWTSecret, time.Hour, validate, logger)
	courseService := service.NewCourseService(courses, materials, users, access, uploads, validate, logger)
	progress := service.NewProgressService(repository.NewProgressRepository(db), materials, access, validate, logger)
	assignmentService := service.NewAssignmentService(assignments, access, uploads, activity, validate, logger)
	submissions := service.NewSubmissionService(repository.NewSubmissionRepository(db), assignments, access, uploads, notifications, activity, validate, logger)
	certificates := service.NewCertificateService(repository.NewCertificateRepository(db), users, materials, access, progress, notifications, activity, nil, 0, logger)
	discussions := service.NewDiscussionService(repository.NewDiscussionRepository(db), materials, users, access, notifications, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Ajarin Test", JWTSecret: testJWTSecret}, router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(auth, logger),
		CourseHandler:        handler.NewCourseHandler(courseService, progress, logger),
		ProgressHandler:      handler.NewProgressHandler(progress, logger),
		AssignmentHandler:    handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:    handler.NewSubmissionHandler(submissions, logger),
		CertificateHandler:   handler.NewCertificateHandler(certificates, logger),
		DiscussionHandler:    handler.NewDiscussionHandler(discussions, logger),
		NotificationHandler:  handler.NewNotificationHandler(notifications, logger),
		UploadHandler:        handler.NewUploadHandler(uploads, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activity, logger),
		JWTMiddleware:        middleware.JWTProtected(testJWTSecret),
	})

	return &testServer{app: app, db: db, storage: files}
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var body envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	return s.do(t, req, token)
}

func (s *testServer) doMultipart(t *testing.T, path, token string, fields map[string]string, fileField, fileName string, content []byte) (*http.Response, envelope) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(t, req, token)
}

func (s *testServer) register(t *testing.T, name, role string) account {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    uuid.NewString() + "@example.com",
		"password": "correct-horse",
		"role":     role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var auth struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &auth))
	return account{ID: auth.User.ID, Token: auth.Token}
}

func (s *testServer) createCourse(t *testing.T, mentor account) uint {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, "/api/v1/courses", mentor.Token, map[string]interface{}{
		"title":        "Practical Go",
		"category":     "programming",
		"is_published": true,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	return decodeID(t, body.Data)
}

func (s *testServer) enroll(t *testing.T, student account, courseID uint) {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), student.Token, nil)
	require.Contains(t, []int{fiber.StatusOK, fiber.StatusCreated}, resp.StatusCode, body.Message)
}

func (s *testServer) createAssignment(t *testing.T, mentor account, courseID uint, maxAttempts int) uint {
	t.Helper()
	resp, body := s.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), mentor.Token, map[string]interface{}{
		"title":        "Build a CLI",
		"max_attempts": maxAttempts,
		"is_published": true,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	return decodeID(t, body.Data)
}

func decodeID(t *testing.T, raw json.RawMessage) uint {
	t.Helper()
	var item struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &item))
	require.NotZero(t, item.ID)
	return item.ID
}

func jsonUnmarshal(raw json.RawMessage, target interface{}) error {
	return json.Unmarshal(raw, target)
}

// admin inserts an administrator directly; self-registration cannot grant the role.
func (s *testServer) admin(t *testing.T) account {
	t.Helper()
	user := models.User{Name: "Admin", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, s.db.Create(&user).Error)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return account{ID: user.ID, Token: token}
}
