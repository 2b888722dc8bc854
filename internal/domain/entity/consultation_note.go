package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConsultationNote holds the clinical record of one appointment
type ConsultationNote struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AppointmentID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"appointment_id"`
	DoctorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"patient_id"`
	Diagnosis       string     `gorm:"type:text" json:"diagnosis"`
	Prescription    string     `gorm:"type:text" json:"prescription,omitempty"`
	Recommendations string     `gorm:"type:text" json:"recommendations,omitempty"`
	FollowUpDate    *time.Time `gorm:"type:date" json:"follow_up_date,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ConsultationNote) TableName() string {
	return "consultation_notes"
}

// HasDiagnosis reports whether the diagnosis is non-blank
func (n *ConsultationNote) HasDiagnosis() bool {
	return strings.TrimSpace(n.Diagnosis) != ""
}
