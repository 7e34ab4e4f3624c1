package handlers

import (
	"github.com/gofiber/fiber/v2"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
)

func writeError(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(models.ErrorResponse{
		Success: false,
		Error:   apperr.Message(err),
	})
}
