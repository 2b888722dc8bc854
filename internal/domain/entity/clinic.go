package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clinic is a practice location owned by a doctor
type Clinic struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Address         string          `gorm:"type:text" json:"address,omitempty"`
	Phone           string          `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Timezone        string          `gorm:"type:varchar(64)" json:"timezone,omitempty"`
	ConsultationFee decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"consultation_fee"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Clinic) TableName() string {
	return "clinics"
}

// Location returns the clinic's time zone, or fallback when unset or unknown
func (c *Clinic) Location(fallback *time.Location) *time.Location {
	if c.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// ClinicAssistant assigns an assistant user to a clinic
type ClinicAssistant struct {
	ClinicID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"clinic_id"`
	AssistantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"assistant_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Assistant *User `gorm:"foreignKey:AssistantID" json:"assistant,omitempty"`
}

func (ClinicAssistant) TableName() string {
	return "clinic_assistants"
}
