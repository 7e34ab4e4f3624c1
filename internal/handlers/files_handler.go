package handlers

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
	"devfolio/portfolio-api/internal/repositories"
	"devfolio/portfolio-api/internal/services"
)

type FilesHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	log            *logrus.Logger
}

func NewFilesHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	log *logrus.Logger,
) *FilesHandler {
	return &FilesHandler{
		docRepo:        docRepo,
		storageService: storageService,
		log:            log,
	}
}

// HandleGetFile handles GET /api/files/:type/:filename.
func (h *FilesHandler) HandleGetFile(c *fiber.Ctx) error {
	const op = "FilesHandler.HandleGetFile"

	fileClass := c.Params("type")
	if !services.ValidFileClass(fileClass) {
		return writeError(c, apperr.E(apperr.CodeValidation, op,
			fmt.Sprintf("Invalid file type: %s. Must be 'cv' or 'photo'", fileClass), nil))
	}

	filename, err := url.PathUnescape(c.Params("filename"))
	if err != nil || filename == "" {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "invalid filename", err))
	}

	data, err := h.storageService.Read(fileClass, filename)
	if err != nil {
		return writeError(c, err)
	}

	forceDownload := c.Query("download") == "true"
	c.Set(fiber.HeaderContentType, services.ContentTypeForExt(filepath.Ext(filename)))
	c.Set(fiber.HeaderContentDisposition, services.DispositionFor(filename, forceDownload))

	return c.Send(data)
}

// HandleListFiles handles GET /api/files/:type.
func (h *FilesHandler) HandleListFiles(c *fiber.Ctx) error {
	const op = "FilesHandler.HandleListFiles"

	fileClass := c.Params("type")
	if !services.ValidFileClass(fileClass) {
		return writeError(c, apperr.E(apperr.CodeValidation, op,
			fmt.Sprintf("Invalid file type: %s. Must be 'cv' or 'photo'", fileClass), nil))
	}

	files, err := h.storageService.List(fileClass)
	if err != nil {
		return writeError(c, err)
	}

	entries := make([]models.FileListEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, models.FileListEntry{
			Filename: f.Filename,
			Size:     f.Size,
			Created:  f.Created.Format(time.RFC3339),
			Modified: f.Modified.Format(time.RFC3339),
		})
	}

	return c.JSON(models.FileListResponse{Success: true, Files: entries})
}

// HandleCopyFiles handles POST /api/copy-files.
func (h *FilesHandler) HandleCopyFiles(c *fiber.Ctx) error {
	const op = "FilesHandler.HandleCopyFiles"

	var req models.CopyFilesRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, apperr.E(apperr.CodeValidation, op, "Invalid request payload", err))
	}

	if req.SourceEndpoint == "" || req.TargetEndpoint == "" {
		return writeError(c, apperr.E(apperr.CodeValidation, op,
			"sourceEndpoint and targetEndpoint are required", nil))
	}

	copied, err := h.storageService.CopyEndpoint(req.SourceEndpoint, req.TargetEndpoint)
	if err != nil {
		return writeError(c, err)
	}

	// Mirror the copy in the document records. The files are already in
	// place, so record bookkeeping is best-effort.
	for _, cf := range copied {
		source, err := h.docRepo.FindByClassAndEndpoint(cf.FileClass, req.SourceEndpoint)
		if err != nil {
			continue
		}
		target := &models.Document{
			ID:               uuid.New(),
			FileClass:        cf.FileClass,
			Endpoint:         req.TargetEndpoint,
			Filename:         cf.Target,
			OriginalFileName: source.OriginalFileName,
			MimeType:         source.MimeType,
			SizeBytes:        source.SizeBytes,
			FilePath:         filepath.Join(filepath.Dir(source.FilePath), cf.Target),
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		if err := h.docRepo.Upsert(target); err != nil {
			h.log.WithError(err).WithField("endpoint", req.TargetEndpoint).
				Warn("failed to mirror copied file in document records")
		}
	}

	return c.JSON(models.CopyFilesResponse{
		Success:     true,
		Message:     fmt.Sprintf("Copied %d file(s) from %s to %s", len(copied), req.SourceEndpoint, req.TargetEndpoint),
		CopiedFiles: copied,
	})
}
