package models

import (
	"time"

	"github.com/google/uuid"
)

// Document mirrors one stored upload. At most one row exists per
// (file_class, endpoint) pair, matching the on-disk naming scheme.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FileClass        string    `gorm:"type:text;not null;uniqueIndex:idx_class_endpoint" json:"file_class"`
	Endpoint         string    `gorm:"type:text;not null;uniqueIndex:idx_class_endpoint" json:"endpoint"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"original_filename"`
	MimeType         string    `gorm:"type:text" json:"mime_type"`
	SizeBytes        int64     `gorm:"type:bigint" json:"size_bytes"`
	FilePath         string    `gorm:"type:text" json:"file_path"`
	CreatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
