package handlers

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
	"devfolio/portfolio-api/internal/services"
)

type ParseHandler struct {
	extractor services.ExtractorService
	log       *logrus.Logger
}

func NewParseHandler(extractor services.ExtractorService, log *logrus.Logger) *ParseHandler {
	return &ParseHandler{extractor: extractor, log: log}
}

// HandleParseResume handles POST /api/parse-resume-llm.
func (h *ParseHandler) HandleParseResume(c *fiber.Ctx) error {
	const op = "ParseHandler.HandleParseResume"

	var req models.ParseResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "Invalid request payload", err))
	}

	result, err := h.extractor.ExtractFromText(c.UserContext(), req.ResumeText, req.Endpoint, req.Config)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(models.ParseResponse{
		Success:    true,
		Data:       result.Profile,
		Model:      result.Model,
		TokensUsed: result.TokensUsed,
	})
}

// HandleParsePDF handles POST /api/parse-pdf-llm.
func (h *ParseHandler) HandleParsePDF(c *fiber.Ctx) error {
	const op = "ParseHandler.HandleParsePDF"

	var req models.ParsePDFRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "Invalid request payload", err))
	}

	if strings.TrimSpace(req.PDFBuffer) == "" {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "pdfBuffer is required", nil))
	}

	// Browsers commonly send data URIs; accept those too.
	encoded := req.PDFBuffer
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}

	pdfBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "pdfBuffer is not valid base64", err))
	}

	result, err := h.extractor.ExtractFromPDF(c.UserContext(), pdfBytes, req.Endpoint, req.Config)
	if err != nil {
		return writeError(c, err)
	}

	length := result.ExtractedTextLength
	return c.JSON(models.ParseResponse{
		Success:             true,
		Data:                result.Profile,
		Model:               result.Model,
		TokensUsed:          result.TokensUsed,
		ExtractedTextLength: &length,
	})
}
