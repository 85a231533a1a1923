package handler

import (
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ajarin-go-api/internal/dto"
	"github.com/noah-isme/ajarin-go-api/internal/service"
	"github.com/noah-isme/ajarin-go-api/internal/utils"
)

// SubmissionHandler exposes submission, draft, grading and return routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register binds submission routes to the protected API group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/assignments/:id/submissions", h.submit)
	router.Post("/assignments/:id/submissions/draft", h.saveDraft)
	router.Get("/assignments/:id/submissions/me", h.mine)
	router.Get("/courses/:id/submissions", h.queue)
	router.Get("/submissions/:id", h.get)
	router.Patch("/submissions/:id/grade", h.grade)
	router.Patch("/submissions/:id/return", h.returnForRevision)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	return h.write(c, false)
}

func (h *SubmissionHandler) saveDraft(c *fiber.Ctx) error {
	return h.write(c, true)
}

func (h *SubmissionHandler) write(c *fiber.Ctx, draft bool) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	var files []*multipart.FileHeader
	if isMultipart(c) {
		files = formFiles(c, "files")
		if len(files) == 0 {
			files = formFiles(c, "file")
		}
	}

	ctx := withRequestContext(c)
	studentID := userIDFromContext(c)

	if draft {
		submission, err := h.service.SaveDraft(ctx, studentID, assignmentID, payload, files)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "draft saved", fiber.Map{"submission": submission})
	}

	submission, err := h.service.Submit(ctx, studentID, assignmentID, payload, files)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignmentID).
		Int("attempt", submission.AttemptNumber).
		Msg("submission received")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", fiber.Map{"submission": submission})
}

func (h *SubmissionHandler) mine(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.GetMine(withRequestContext(c), userIDFromContext(c), assignmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", fiber.Map{"submission": submission})
}

func (h *SubmissionHandler) queue(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.SubmissionListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	submissions, err := h.service.ListForGrading(withRequestContext(c), userIDFromContext(c), courseID, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, submissions, "grading queue", fiber.Map{"total": len(submissions)})
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(withRequestContext(c), userIDFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", fiber.Map{"submission": submission})
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.Grade(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission graded", fiber.Map{"submission": submission})
}

func (h *SubmissionHandler) returnForRevision(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReturnRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	submission, err := h.service.ReturnForRevision(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission returned for revision", fiber.Map{"submission": submission})
}
