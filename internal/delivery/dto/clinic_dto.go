package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateClinicRequest struct {
	DoctorID        *uuid.UUID      `json:"doctor_id" validate:"omitempty"` // required when an admin creates the clinic
	Name            string          `json:"name" validate:"required,min=2,max=255"`
	Address         string          `json:"address"`
	Phone           string          `json:"phone" validate:"omitempty,max=30"`
	Timezone        string          `json:"timezone" validate:"omitempty,max=64"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
}

type UpdateClinicRequest struct {
	Name            string           `json:"name" validate:"omitempty,min=2,max=255"`
	Address         *string          `json:"address"`
	Phone           *string          `json:"phone" validate:"omitempty,max=30"`
	Timezone        *string          `json:"timezone" validate:"omitempty,max=64"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
	IsActive        *bool            `json:"is_active"`
}

type AssignAssistantRequest struct {
	AssistantID uuid.UUID `json:"assistant_id" validate:"required"`
}

// Response DTOs

type ClinicResponse struct {
	ID              uuid.UUID       `json:"id"`
	DoctorID        uuid.UUID       `json:"doctor_id"`
	Name            string          `json:"name"`
	Address         string          `json:"address,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Timezone        string          `json:"timezone,omitempty"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ClinicListResponse struct {
	Clinics []ClinicResponse `json:"clinics"`
	Total   int64            `json:"total"`
}

type ClinicAssistantResponse struct {
	ClinicID    uuid.UUID     `json:"clinic_id"`
	AssistantID uuid.UUID     `json:"assistant_id"`
	Assistant   *UserResponse `json:"assistant,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
