package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestAdminActivityRequiresAdmin(t *testing.T) {
	server := newTestServer(t)
	mentor := server.register(t, "Mentor", "mentor")
	admin := server.admin(t)
	courseID := server.createCourse(t, mentor)
	assignmentID := server.createAssignment(t, mentor, courseID, 1)

	resp, _ := server.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/assignments/%d", assignmentID), mentor.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodGet, "/api/v1/admin/activity", mentor.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = server.doJSON(t, http.MethodGet, "/api/v1/admin/activity?page=x", admin.Token, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := server.doJSON(t, http.MethodGet, "/api/v1/admin/activity?entity_type=assignment", admin.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body.Data), "assignment.deleted")

	var meta struct {
		TotalItems int64 `json:"total_items"`
	}
	require.NoError(t, jsonUnmarshal(body.Meta, &meta))
	require.Equal(t, int64(1), meta.TotalItems)
}
