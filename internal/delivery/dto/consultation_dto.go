package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type ValidateIdentityRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type SaveNoteRequest struct {
	Diagnosis       string `json:"diagnosis" validate:"omitempty,max=5000"`
	Prescription    string `json:"prescription" validate:"omitempty,max=5000"`
	Recommendations string `json:"recommendations" validate:"omitempty,max=5000"`
	FollowUpDate    string `json:"follow_up_date" validate:"omitempty,isodate"` // Format: YYYY-MM-DD
}

// Response DTOs

type StartEligibilityResponse struct {
	AppointmentID     uuid.UUID `json:"appointment_id"`
	IdentityValidated bool      `json:"identity_validated"`
	Allowed           bool      `json:"allowed"`
	Reason            string    `json:"reason,omitempty"`
	CanSelfValidate   bool      `json:"can_self_validate"`
}

type IdentityValidationResponse struct {
	ID              int64     `json:"id"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ValidatedBy     uuid.UUID `json:"validated_by"`
	ValidatorRole   string    `json:"validator_role"`
	ValidationNotes string    `json:"validation_notes,omitempty"`
	IsAuthoritative bool      `json:"is_authoritative"`
	ValidatedAt     time.Time `json:"validated_at"`
}

type IdentityEvidenceResponse struct {
	AppointmentID     uuid.UUID                    `json:"appointment_id"`
	PatientID         uuid.UUID                    `json:"patient_id"`
	IdentityValidated bool                         `json:"identity_validated"`
	HasProfilePhoto   bool                         `json:"has_profile_photo"`
	HasIDDocument     bool                         `json:"has_id_document"`
	Ready             bool                         `json:"ready"`
	History           []IdentityValidationResponse `json:"history"`
}

type ConsultationNoteResponse struct {
	ID              uuid.UUID `json:"id"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Diagnosis       string    `json:"diagnosis"`
	Prescription    string    `json:"prescription,omitempty"`
	Recommendations string    `json:"recommendations,omitempty"`
	FollowUpDate    string    `json:"follow_up_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
