package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/middleware"
	"github.com/noah-isme/ajarin-go-api/internal/service"
	"github.com/noah-isme/ajarin-go-api/internal/utils"
)

// CourseHandler wires course catalogue, enrollment and material authoring routes.
type CourseHandler struct {
	courses  service.CourseService
	progress service.ProgressService
	logger   zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(courses service.CourseService, progress service.ProgressService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:  courses,
		progress: progress,
		logger:   logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the protected API group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Post("/courses", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleMentor}))
	router.Get("/courses", h.list)
	router.Get("/courses/:id", h.get)
	router.Post("/courses/:id/enroll", h.enroll)
	router.Post("/courses/:id/materials", middleware.WithAuth(h.addMaterial, middleware.AuthOptions{Role: middleware.AuthRoleMentor}))
	router.Get("/courses/:id/materials", h.listMaterials)
	router.Get("/courses/:id/progress", h.courseProgress)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.courses.Create(withRequestContext(c), userIDFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	var req dto.CourseListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	result, err := h.courses.List(withRequestContext(c), userIDFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "courses", result.Pagination)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.courses.Get(withRequestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.courses.Enroll(withRequestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	status := fiber.StatusOK
	if enrollment.Created {
		status = fiber.StatusCreated
	}
	return utils.SendSuccessWithStatus(c, status, "enrolled", enrollment)
}

func (h *CourseHandler) addMaterial(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MaterialCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	material, err := h.courses.AddMaterial(withRequestContext(c), userIDFromContext(c), id, payload, optionalFormFile(c, "file"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material created", material)
}

func (h *CourseHandler) listMaterials(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	catalog, err := h.progress.ListMaterials(withRequestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "materials", catalog)
}

func (h *CourseHandler) courseProgress(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.progress.CourseProgress(withRequestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "course progress", report)
}
