package entity

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfile represents patient-specific profile data
type PatientProfile struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	NationalID     string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"national_id"`
	PhoneNumber    string     `gorm:"type:varchar(20);index" json:"phone_number,omitempty"`
	DateOfBirth    *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender         string     `gorm:"type:char(1)" json:"gender,omitempty"`
	Address        string     `gorm:"type:text" json:"address,omitempty"`
	InsuranceInfo  string     `gorm:"type:text" json:"insurance_info,omitempty"`
	EmergencyPhone string     `gorm:"type:varchar(20)" json:"emergency_phone,omitempty"`

	// Relationships
	User      User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Documents []PatientDocument `gorm:"foreignKey:PatientID" json:"documents,omitempty"`
}

func (PatientProfile) TableName() string {
	return "patient_profiles"
}

// Gender constants
const (
	GenderMale   = "M"
	GenderFemale = "F"
)
