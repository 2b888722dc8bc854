package dto

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfileResponse represents patient profile data in responses
type PatientProfileResponse struct {
	UserID         uuid.UUID `json:"user_id"`
	NationalID     string    `json:"national_id"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	DateOfBirth    string    `json:"date_of_birth,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	InsuranceInfo  string    `json:"insurance_info,omitempty"`
	EmergencyPhone string    `json:"emergency_phone,omitempty"`
}

type RegisterDocumentRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=profile_photo id_document"`
	StoragePath string `json:"storage_path" validate:"required,max=1024"`
	ContentType string `json:"content_type" validate:"omitempty,max=100"`
}

type PatientDocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	Kind        string    `json:"kind"`
	StoragePath string    `json:"storage_path"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
