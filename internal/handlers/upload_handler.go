package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
	"devfolio/portfolio-api/internal/repositories"
	"devfolio/portfolio-api/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	log            *logrus.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	log *logrus.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		log:            log,
	}
}

// HandleUploadCV handles POST /api/upload/cv and its /api/upload/resume alias.
func (h *UploadHandler) HandleUploadCV(c *fiber.Ctx) error {
	return h.handleUpload(c, services.ClassCV, "cvFile")
}

// HandleUploadPhoto handles POST /api/upload/photo.
func (h *UploadHandler) HandleUploadPhoto(c *fiber.Ctx) error {
	return h.handleUpload(c, services.ClassPhoto, "photoFile")
}

func (h *UploadHandler) handleUpload(c *fiber.Ctx, fileClass, field string) error {
	const op = "UploadHandler.handleUpload"

	fh, err := c.FormFile(field)
	if err != nil {
		return writeError(c, apperr.E(apperr.CodeValidation, op,
			fmt.Sprintf("No file uploaded. Expected multipart field '%s'", field), err))
	}

	endpoint := c.FormValue("endpoint")
	if endpoint == "" {
		endpoint = "default"
	}

	stored, err := h.storageService.Save(fileClass, endpoint, fh)
	if err != nil {
		return writeError(c, err)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		FileClass:        fileClass,
		Endpoint:         endpoint,
		Filename:         stored.Filename,
		OriginalFileName: stored.OriginalName,
		MimeType:         stored.MimeType,
		SizeBytes:        stored.Size,
		FilePath:         stored.Path,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := h.docRepo.Upsert(doc); err != nil {
		return writeError(c, apperr.E(apperr.CodeInternal, op, "failed to record upload", err))
	}

	return c.JSON(models.UploadResponse{
		Success: true,
		Message: fmt.Sprintf("%s uploaded successfully", fileClass),
		File: models.FilePayload{
			Filename:     stored.Filename,
			OriginalName: stored.OriginalName,
			Size:         stored.Size,
			MimeType:     stored.MimeType,
			Endpoint:     stored.Endpoint,
		},
	})
}
