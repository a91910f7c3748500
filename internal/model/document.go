// internal/model/document.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTranscript     DocumentType = "transcript"
	DocumentIdentification DocumentType = "identification"
	DocumentCertificate    DocumentType = "certificate"
	DocumentOther          DocumentType = "other"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
)

// Document is a file an applicant stored with the file-storage collaborator.
type Document struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"type:text;not null" json:"name"`
	Type      DocumentType   `gorm:"type:text;not null" json:"type"`
	URL       string         `gorm:"type:text;not null" json:"url"`
	PublicID  string         `gorm:"type:text;not null" json:"-"`
	Status    DocumentStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
