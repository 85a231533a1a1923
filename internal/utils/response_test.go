package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ajarin-go-api/internal/utils"
)

func TestOKIncludesMetaAndDefaults(t *testing.T) {
	raw := call(t, fiber.StatusOK, func(c *fiber.Ctx) error {
		return utils.OK(c, map[string]string{"title": "Go Basics"}, "", fiber.Map{"total": 1})
	})

	require.Equal(t, true, raw["success"])
	require.Equal(t, "success", raw["message"])
	require.Equal(t, "Go Basics", raw["data"].(map[string]interface{})["title"])
	require.Equal(t, float64(1), raw["meta"].(map[string]interface{})["total"])
	require.NotContains(t, raw, "details")
}

func TestSendSuccessWithStatusUsesStatusAndOmitsMeta(t *testing.T) {
	raw := call(t, fiber.StatusCreated, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", fiber.Map{"id": 7})
	})

	require.Equal(t, "course created", raw["message"])
	require.NotContains(t, raw, "meta")
}

func TestFailIncludesDetails(t *testing.T) {
	raw := call(t, fiber.StatusConflict, func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusConflict, "assignment has submissions", fiber.Map{"submissions": 3})
	})

	require.Equal(t, false, raw["success"])
	require.Equal(t, float64(3), raw["details"].(map[string]interface{})["submissions"])
	require.NotContains(t, raw, "data")
}

func TestSendErrorOmitsDetails(t *testing.T) {
	raw := call(t, fiber.StatusNotFound, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "")
	})

	require.Equal(t, "error", raw["message"])
	require.NotContains(t, raw, "details")
}

func call(t *testing.T, wantStatus int, h fiber.Handler) map[string]interface{} {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return raw
}
