package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAvailabilityRequest struct {
	Weekday   *int   `json:"weekday" validate:"required,min=0,max=6"` // 0=Monday .. 6=Sunday
	StartTime string `json:"start_time" validate:"required,clock"`    // Format: HH:MM
	EndTime   string `json:"end_time" validate:"required,clock"`      // Format: HH:MM
}

type UpdateAvailabilityRequest struct {
	Weekday   *int   `json:"weekday" validate:"omitempty,min=0,max=6"`
	StartTime string `json:"start_time" validate:"omitempty,clock"`
	EndTime   string `json:"end_time" validate:"omitempty,clock"`
	IsActive  *bool  `json:"is_active"`
}

type GenerateSlotsRequest struct {
	Date            string `validate:"required,isodate"`
	IntervalMinutes int    `validate:"required"`
}

// Response DTOs

type AvailabilityResponse struct {
	ID        int       `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	Weekday   int       `json:"weekday"`
	DayName   string    `json:"day_name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AvailabilityListResponse struct {
	Rules []AvailabilityResponse `json:"rules"`
	Total int                    `json:"total"`
}

type TimeSlotResponse struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Weekday  int       `json:"weekday"`
}

type SlotListResponse struct {
	ClinicID        uuid.UUID          `json:"clinic_id"`
	Date            string             `json:"date"`
	IntervalMinutes int                `json:"interval_minutes"`
	Slots           []TimeSlotResponse `json:"slots"`
}
