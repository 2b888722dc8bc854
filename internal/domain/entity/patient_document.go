package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind names the identity documents a patient can have on file
type DocumentKind string

const (
	DocumentKindProfilePhoto DocumentKind = "profile_photo"
	DocumentKindIDDocument   DocumentKind = "id_document"
)

// PatientDocument records where an uploaded document lives. The binary
// itself is kept by external storage.
type PatientDocument struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"patient_id"`
	Kind        DocumentKind `gorm:"type:varchar(30);not null" json:"kind"`
	StoragePath string       `gorm:"type:text;not null" json:"storage_path"`
	ContentType string       `gorm:"type:varchar(100)" json:"content_type,omitempty"`
	UploadedBy  uuid.UUID    `gorm:"type:uuid;not null" json:"uploaded_by"`
	UploadedAt  time.Time    `gorm:"not null" json:"uploaded_at"`
}

func (PatientDocument) TableName() string {
	return "patient_documents"
}
