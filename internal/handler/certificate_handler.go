package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ajarin-go-api/internal/service"
	"github.com/noah-isme/ajarin-go-api/internal/utils"
)

// CertificateHandler exposes eligibility, issuance and public verification.
type CertificateHandler struct {
	service service.CertificateService
	logger  zerolog.Logger
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(service service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service: service,
		logger:  logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// RegisterPublic attaches the unauthenticated verification routes.
func (h *CertificateHandler) RegisterPublic(router fiber.Router) {
	router.Get("/certificates/public/:publicId", h.verify)
	router.Post("/certificates/public/:publicId/download", h.download)
}

// Register attaches the authenticated certificate routes.
func (h *CertificateHandler) Register(router fiber.Router) {
	router.Get("/courses/:id/certificate/eligibility", h.eligibility)
	router.Post("/courses/:id/certificate", h.generate)
	router.Get("/certificates", h.mine)
	router.Patch("/certificates/:id/revoke", h.revoke)
}

func (h *CertificateHandler) eligibility(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.CheckEligibility(withRequestContext(c), userIDFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificate eligibility", result)
}

func (h *CertificateHandler) generate(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Generate(withRequestContext(c), userIDFromContext(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	status := fiber.StatusOK
	message := "certificate already claimed"
	if result.Created {
		status = fiber.StatusCreated
		message = "certificate issued"
	}
	return utils.SendSuccessWithStatus(c, status, message, result)
}

func (h *CertificateHandler) mine(c *fiber.Ctx) error {
	certificates, err := h.service.ListMine(withRequestContext(c), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificates", certificates)
}

func (h *CertificateHandler) revoke(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	certificate, err := h.service.Revoke(withRequestContext(c), activityActorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificate revoked", fiber.Map{"certificate": certificate})
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	certificate, err := h.service.GetPublic(withRequestContext(c), c.Params("publicId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificate verified", certificate)
}

func (h *CertificateHandler) download(c *fiber.Ctx) error {
	certificate, err := h.service.RecordDownload(withRequestContext(c), c.Params("publicId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "certificate download recorded", certificate)
}
