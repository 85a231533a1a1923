package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type submissionView struct {
	Submission struct {
		ID            uint   `json:"id"`
		AttemptNumber int    `json:"attempt_number"`
		Status        string `json:"status"`
		Revisions     []struct {
			RevisionNumber int `json:"revision_number"`
		} `json:"revisions"`
		Grading *struct {
			Score *float64 `json:"score"`
		} `json:"grading"`
	} `json:"submission"`
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)
	server.enroll(t, student, courseID)
	assignmentID := server.createAssignment(t, mentor, courseID, 1)
	base := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignmentID)

	resp, body := server.doJSON(t, http.MethodPost, base+"/draft", student.Token, map[string]string{
		"content_type": "text",
		"text":         "first thoughts",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)

	var view submissionView
	require.NoError(t, jsonUnmarshal(body.Data, &view))
	require.Equal(t, "draft", view.Submission.Status)

	resp, body = server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "text",
		"text":         "final answer",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	require.NoError(t, jsonUnmarshal(body.Data, &view))
	require.Equal(t, "submitted", view.Submission.Status)
	require.Equal(t, 1, view.Submission.AttemptNumber)
	submissionID := view.Submission.ID

	resp, body = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/submissions", courseID), mentor.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"total":1}`, string(body.Meta))

	resp, _ = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/submissions", courseID), student.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", submissionID)
	resp, _ = server.doJSON(t, http.MethodPatch, gradePath, student.Token, map[string]interface{}{"score": 100})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = server.doJSON(t, http.MethodPatch, gradePath, mentor.Token, map[string]interface{}{"score": 140})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "score", body.Details["field"])

	resp, body = server.doJSON(t, http.MethodPatch, gradePath, mentor.Token, map[string]interface{}{
		"score":    85,
		"feedback": "Nice work",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	require.NoError(t, jsonUnmarshal(body.Data, &view))
	require.Equal(t, "graded", view.Submission.Status)
	require.NotNil(t, view.Submission.Grading)
	require.InDelta(t, 85, *view.Submission.Grading.Score, 0.001)

	resp, _ = server.doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/submissions/%d/return", submissionID), mentor.Token, map[string]string{
		"feedback": "Try again",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "text",
		"text":         "one more",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = server.doJSON(t, http.MethodGet, base+"/me", student.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, jsonUnmarshal(body.Data, &view))
	require.Equal(t, submissionID, view.Submission.ID)
}

func TestSubmissionReturnedForRevisionKeepsHistory(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)
	server.enroll(t, student, courseID)
	assignmentID := server.createAssignment(t, mentor, courseID, 1)
	base := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignmentID)

	resp, body := server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "url",
		"url":          "https://github.com/example/cli",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	var view submissionView
	require.NoError(t, jsonUnmarshal(body.Data, &view))

	resp, _ = server.doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/submissions/%d/return", view.Submission.ID), mentor.Token, map[string]string{
		"feedback": "Add tests",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "url",
		"url":          "https://github.com/example/cli/tree/tests",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
	require.NoError(t, jsonUnmarshal(body.Data, &view))
	require.Equal(t, "submitted", view.Submission.Status)
	require.Equal(t, 1, view.Submission.AttemptNumber)
	require.Len(t, view.Submission.Revisions, 1)
}

func TestSubmissionRejectsInvalidContent(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)
	server.enroll(t, student, courseID)
	assignmentID := server.createAssignment(t, mentor, courseID, 1)
	base := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignmentID)

	resp, _ := server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "text",
		"text":         "   ",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, base, student.Token, map[string]string{
		"content_type": "url",
		"url":          "ftp://example.com/file",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = server.doMultipart(t, base, student.Token, map[string]string{"content_type": "file"}, "files", "answer.png", pngHeader)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}
