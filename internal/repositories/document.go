package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devfolio/portfolio-api/internal/models"
)

type DocumentRepository interface {
	Upsert(document *models.Document) error
	FindByClassAndEndpoint(fileClass, endpoint string) (*models.Document, error)
	ListByClass(fileClass string) ([]models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Upsert implements DocumentRepository. Re-uploading for the same
// (file_class, endpoint) replaces the existing row, mirroring the
// overwrite semantics of the file store.
func (d *documentRepository) Upsert(document *models.Document) error {
	document.UpdatedAt = time.Now()

	err := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_class"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"filename", "original_filename", "mime_type",
			"size_bytes", "file_path", "updated_at",
		}),
	}).Create(document).Error

	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// FindByClassAndEndpoint implements DocumentRepository.
func (d *documentRepository) FindByClassAndEndpoint(fileClass, endpoint string) (*models.Document, error) {
	var doc models.Document
	err := d.db.
		Where("file_class = ? AND endpoint = ?", fileClass, endpoint).
		First(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("document not found: %w", err)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// ListByClass implements DocumentRepository.
func (d *documentRepository) ListByClass(fileClass string) ([]models.Document, error) {
	var docs []models.Document
	err := d.db.
		Where("file_class = ?", fileClass).
		Order("endpoint ASC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}
