package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserResponse struct {
	ID             uuid.UUID               `json:"id"`
	Email          string                  `json:"email"`
	FullName       string                  `json:"full_name"`
	Phone          string                  `json:"phone,omitempty"`
	Role           string                  `json:"role"`
	IsActive       bool                    `json:"is_active"`
	DoctorProfile  *DoctorProfileResponse  `json:"doctor_profile,omitempty"`
	PatientProfile *PatientProfileResponse `json:"patient_profile,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type DoctorProfileResponse struct {
	LicenseNumber  string `json:"license_number"`
	Specialization string `json:"specialization"`
	Biography      string `json:"biography,omitempty"`
}

// Role-specific Registration Request DTOs

// RegisterPatientRequest is the self-registration form of a patient
type RegisterPatientRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FullName       string `json:"full_name" validate:"required,min=2"`
	NationalID     string `json:"national_id" validate:"required,min=6,max=32"`
	PhoneNumber    string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	DateOfBirth    string `json:"date_of_birth" validate:"omitempty,isodate"` // Format: YYYY-MM-DD
	Gender         string `json:"gender" validate:"omitempty,oneof=M F"`
	Address        string `json:"address" validate:"omitempty"`
	InsuranceInfo  string `json:"insurance_info" validate:"omitempty,max=500"`
	EmergencyPhone string `json:"emergency_phone" validate:"omitempty,min=10,max=20"`
}

// CreateStaffRequest is used by admins to create doctors and assistants.
// License number and specialization are only read for doctors.
type CreateStaffRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	FullName       string `json:"full_name" validate:"required,min=2"`
	Phone          string `json:"phone" validate:"omitempty,max=30"`
	Role           string `json:"role" validate:"required,oneof=doctor assistant"`
	LicenseNumber  string `json:"license_number" validate:"required_if=Role doctor"`
	Specialization string `json:"specialization" validate:"required_if=Role doctor"`
	Biography      string `json:"biography" validate:"omitempty"`
}
