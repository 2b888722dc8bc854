package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdentityValidation is one entry of the identity check history of an
// appointment. The first entry that flipped the appointment's flag is
// authoritative; later entries are additive.
type IdentityValidation struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID   uuid.UUID `gorm:"type:uuid;not null;index" json:"appointment_id"`
	PatientID       uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	ValidatedBy     uuid.UUID `gorm:"type:uuid;not null" json:"validated_by"`
	ValidatorRole   string    `gorm:"type:varchar(50);not null" json:"validator_role"`
	ValidationNotes string    `gorm:"type:text" json:"validation_notes,omitempty"`
	IsAuthoritative bool      `gorm:"not null;default:false" json:"is_authoritative"`
	ValidatedAt     time.Time `gorm:"not null" json:"validated_at"`
}

func (IdentityValidation) TableName() string {
	return "identity_validations"
}

// IdentityEvidence summarizes what a UI should show before validating
type IdentityEvidence struct {
	AppointmentID     uuid.UUID
	PatientID         uuid.UUID
	IdentityValidated bool
	HasProfilePhoto   bool
	HasIDDocument     bool
	History           []IdentityValidation
}

// Ready reports whether both documents are on file. It is advisory only.
func (e *IdentityEvidence) Ready() bool {
	return e.HasProfilePhoto && e.HasIDDocument
}
