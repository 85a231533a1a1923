package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestAssignmentCreateWithQuestionFile(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	courseID := server.createCourse(t, mentor)

	resp, body := server.doMultipart(t, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), mentor.Token, map[string]string{
		"title":        "Design a schema",
		"max_points":   "50",
		"is_published": "true",
	}, "file", "brief.png", pngHeader)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var assignment struct {
		MaxPoints    float64 `json:"max_points"`
		QuestionFile *struct {
			ID       string `json:"id"`
			MimeType string `json:"mime_type"`
		} `json:"question_file"`
	}
	require.NoError(t, jsonUnmarshal(body.Data, &assignment))
	require.Equal(t, float64(50), assignment.MaxPoints)
	require.NotNil(t, assignment.QuestionFile)
	require.Equal(t, "image/png", assignment.QuestionFile.MimeType)
	require.Len(t, server.storage.objects, 1)
}

func TestAssignmentAccessRules(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)
	assignmentID := server.createAssignment(t, mentor, courseID, 1)

	resp, _ := server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), student.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/assignments", courseID), student.Token, map[string]string{"title": "Hijack"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	server.enroll(t, student, courseID)

	resp, _ = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", assignmentID), student.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodGet, "/api/v1/assignments/0", student.Token, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodGet, "/api/v1/assignments/424242", mentor.Token, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentUpdateAndDelete(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)
	server.enroll(t, student, courseID)
	assignmentID := server.createAssignment(t, mentor, courseID, 2)
	path := fmt.Sprintf("/api/v1/assignments/%d", assignmentID)

	resp, body := server.doJSON(t, http.MethodPatch, path, mentor.Token, map[string]interface{}{"title": "Build a better CLI"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	require.Contains(t, string(body.Data), "Build a better CLI")

	resp, _ = server.doJSON(t, http.MethodPost, path+"/submissions", student.Token, map[string]string{
		"content_type": "text",
		"text":         "my answer",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = server.doJSON(t, http.MethodDelete, path, mentor.Token, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	require.EqualValues(t, 1, body.Details["submissions"])

	otherID := server.createAssignment(t, mentor, courseID, 1)
	resp, _ = server.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/assignments/%d", otherID), mentor.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
