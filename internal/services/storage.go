package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
)

const (
	ClassCV    = "cv"
	ClassPhoto = "photo"
)

// Endpoints are interpolated into filenames, so they are restricted to a
// safe slug charset instead of being taken verbatim from the caller.
var endpointPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

var allowedMimeTypes = map[string]map[string]string{
	ClassCV: {
		"application/pdf":    ".pdf",
		"application/msword": ".doc",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
		"text/plain": ".txt",
	},
	ClassPhoto: {
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	},
}

type StoredFile struct {
	Filename     string
	OriginalName string
	Path         string
	Size         int64
	MimeType     string
	Endpoint     string
}

type FileInfo struct {
	Filename string
	Size     int64
	Created  time.Time
	Modified time.Time
}

type StorageService interface {
	Save(fileClass, endpoint string, file *multipart.FileHeader) (*StoredFile, error)
	Read(fileClass, filename string) ([]byte, error)
	List(fileClass string) ([]FileInfo, error)
	CopyEndpoint(sourceEndpoint, targetEndpoint string) ([]models.CopiedFile, error)
	EnsureUploadDirs() error
}

type storageService struct {
	uploadPath  string
	maxFileSize int64
	log         *logrus.Logger
}

func NewStorageService(uploadPath string, maxFileSize int64, log *logrus.Logger) StorageService {
	return &storageService{
		uploadPath:  uploadPath,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

func ValidFileClass(fileClass string) bool {
	return fileClass == ClassCV || fileClass == ClassPhoto
}

func ValidEndpoint(endpoint string) bool {
	return endpointPattern.MatchString(endpoint)
}

func (s *storageService) EnsureUploadDirs() error {
	for _, class := range []string{ClassCV, ClassPhoto} {
		if err := os.MkdirAll(s.classDir(class), 0755); err != nil {
			return fmt.Errorf("failed to create upload directory for %s: %w", class, err)
		}
	}
	return nil
}

func (s *storageService) classDir(fileClass string) string {
	return filepath.Join(s.uploadPath, fileClass)
}

func (s *storageService) Save(fileClass, endpoint string, file *multipart.FileHeader) (*StoredFile, error) {
	const op = "StorageService.Save"

	if !ValidFileClass(fileClass) {
		return nil, apperr.E(apperr.CodeValidation, op, fmt.Sprintf("unknown file type: %s", fileClass), nil)
	}
	if !ValidEndpoint(endpoint) {
		return nil, apperr.E(apperr.CodeValidation, op, "endpoint must be an alphanumeric slug (max 64 chars)", nil)
	}
	if file.Size > s.maxFileSize {
		return nil, apperr.E(apperr.CodePayloadTooLarge, op,
			fmt.Sprintf("file too large. Max size: %d bytes", s.maxFileSize), nil)
	}

	mimeType := file.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	mimeExt, ok := allowedMimeTypes[fileClass][mimeType]
	if !ok {
		return nil, apperr.E(apperr.CodeInvalidMimeType, op,
			fmt.Sprintf("Invalid file type: %s is not allowed for %s uploads", mimeType, fileClass), nil)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = mimeExt
	}

	filename := fmt.Sprintf("%s-%s%s", fileClass, endpoint, ext)
	dir := s.classDir(fileClass)
	finalPath := filepath.Join(dir, filename)

	src, err := file.Open()
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to open uploaded file", err)
	}
	defer src.Close()

	if err := s.writeAtomic(dir, finalPath, src); err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to save file", err)
	}

	// A re-upload may change the extension; drop any leftover file for the
	// same endpoint so a listing never shows two entries per endpoint.
	if err := s.removeStaleSiblings(fileClass, endpoint, filename); err != nil {
		s.log.WithError(err).WithField("endpoint", endpoint).
			Warn("failed to clean up stale files after upload")
	}

	s.log.WithFields(logrus.Fields{
		"file_class": fileClass,
		"endpoint":   endpoint,
		"filename":   filename,
		"size":       file.Size,
	}).Info("file stored")

	return &StoredFile{
		Filename:     filename,
		OriginalName: file.Filename,
		Path:         finalPath,
		Size:         file.Size,
		MimeType:     mimeType,
		Endpoint:     endpoint,
	}, nil
}

// writeAtomic stages the content in a temp file in the same directory and
// renames it over the final path, so concurrent uploads to one endpoint
// resolve last-writer-wins without a partially written file being visible.
func (s *storageService) writeAtomic(dir, finalPath string, src io.Reader) error {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}

func (s *storageService) removeStaleSiblings(fileClass, endpoint, keep string) error {
	entries, err := os.ReadDir(s.classDir(fileClass))
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s-%s.", fileClass, endpoint)
	for _, entry := range entries {
		name := entry.Name()
		if name == keep || entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			if err := os.Remove(filepath.Join(s.classDir(fileClass), name)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *storageService) Read(fileClass, filename string) ([]byte, error) {
	const op = "StorageService.Read"

	if !ValidFileClass(fileClass) {
		return nil, apperr.E(apperr.CodeValidation, op, fmt.Sprintf("unknown file type: %s", fileClass), nil)
	}
	if filename != filepath.Base(filename) || filename == "." || filename == "" {
		return nil, apperr.E(apperr.CodeValidation, op, "invalid filename", nil)
	}

	data, err := os.ReadFile(filepath.Join(s.classDir(fileClass), filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.E(apperr.CodeNotFound, op, "File not found", err)
		}
		return nil, apperr.E(apperr.CodeInternal, op, "failed to read file", err)
	}

	return data, nil
}

func (s *storageService) List(fileClass string) ([]FileInfo, error) {
	const op = "StorageService.List"

	if !ValidFileClass(fileClass) {
		return nil, apperr.E(apperr.CodeValidation, op, fmt.Sprintf("unknown file type: %s", fileClass), nil)
	}

	entries, err := os.ReadDir(s.classDir(fileClass))
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, apperr.E(apperr.CodeInternal, op, "failed to list files", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			Created:  info.ModTime(),
			Modified: info.ModTime(),
		})
	}

	return files, nil
}

func (s *storageService) CopyEndpoint(sourceEndpoint, targetEndpoint string) ([]models.CopiedFile, error) {
	const op = "StorageService.CopyEndpoint"

	if !ValidEndpoint(sourceEndpoint) || !ValidEndpoint(targetEndpoint) {
		return nil, apperr.E(apperr.CodeValidation, op, "endpoints must be alphanumeric slugs (max 64 chars)", nil)
	}

	copied := []models.CopiedFile{}
	for _, class := range []string{ClassCV, ClassPhoto} {
		source, ok := s.findByEndpoint(class, sourceEndpoint)
		if !ok {
			// Classes with no source file are skipped, not an error.
			continue
		}

		ext := filepath.Ext(source)
		target := fmt.Sprintf("%s-%s%s", class, targetEndpoint, ext)

		src, err := os.Open(filepath.Join(s.classDir(class), source))
		if err != nil {
			return nil, apperr.E(apperr.CodeInternal, op, fmt.Sprintf("failed to open %s", source), err)
		}

		dir := s.classDir(class)
		err = s.writeAtomic(dir, filepath.Join(dir, target), src)
		src.Close()
		if err != nil {
			return nil, apperr.E(apperr.CodeInternal, op, fmt.Sprintf("failed to copy %s", source), err)
		}

		if err := s.removeStaleSiblings(class, targetEndpoint, target); err != nil {
			s.log.WithError(err).WithField("endpoint", targetEndpoint).
				Warn("failed to clean up stale files after copy")
		}

		copied = append(copied, models.CopiedFile{
			FileClass: class,
			Source:    source,
			Target:    target,
		})
	}

	s.log.WithFields(logrus.Fields{
		"source": sourceEndpoint,
		"target": targetEndpoint,
		"count":  len(copied),
	}).Info("endpoint files copied")

	return copied, nil
}

func (s *storageService) findByEndpoint(fileClass, endpoint string) (string, bool) {
	entries, err := os.ReadDir(s.classDir(fileClass))
	if err != nil {
		return "", false
	}

	prefix := fmt.Sprintf("%s-%s.", fileClass, endpoint)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return entry.Name(), true
		}
	}

	return "", false
}

// ContentTypeForExt maps a file extension to the Content-Type used when
// serving stored files back.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "doc":
		return "application/msword"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// DispositionFor implements the serving policy: PDFs display inline unless a
// download is forced, everything else is served as an attachment.
func DispositionFor(filename string, forceDownload bool) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" && !forceDownload {
		return fmt.Sprintf("inline; filename=%q", filename)
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}
