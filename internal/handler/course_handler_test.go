package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCourseCreateRequiresMentor(t *testing.T) {
	server := newTestServer(t)
	student := server.register(t, "Student", "student")

	resp, _ := server.doJSON(t, http.MethodPost, "/api/v1/courses", student.Token, map[string]interface{}{
		"title": "Not allowed",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCourseEnrollAndProgressFlow(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	student := server.register(t, "Student", "student")
	courseID := server.createCourse(t, mentor)

	var materialIDs []uint
	for i := 1; i <= 2; i++ {
		resp, body := server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/materials", courseID), mentor.Token, map[string]interface{}{
			"title":       fmt.Sprintf("Lesson %d", i),
			"type":        "link",
			"content_url": "https://go.dev/tour",
			"order":       i,
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
		materialIDs = append(materialIDs, decodeID(t, body.Data))
	}

	resp, _ := server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/materials/%d", materialIDs[0]), student.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), student.Token, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), student.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/enroll", courseID), mentor.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/materials/%d", materialIDs[1]), student.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := server.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/materials/%d/progress", materialIDs[0]), student.Token, map[string]bool{"completed": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)

	resp, _ = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/materials/%d", materialIDs[1]), student.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/materials/%d/rating", materialIDs[0]), student.Token, map[string]interface{}{"rating": 9})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = server.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/progress", courseID), student.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body.Data), `"percentage":50`)
}

func TestCourseListReturnsPagination(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	server.createCourse(t, mentor)
	server.createCourse(t, mentor)

	resp, body := server.doJSON(t, http.MethodGet, "/api/v1/courses?page_size=1", mentor.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var meta struct {
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	}
	require.NoError(t, jsonUnmarshal(body.Meta, &meta))
	require.Equal(t, 1, meta.PageSize)
	require.Equal(t, int64(2), meta.TotalItems)
	require.Equal(t, 2, meta.TotalPages)
}
