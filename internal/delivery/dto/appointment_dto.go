package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	ClinicID        uuid.UUID  `json:"clinic_id" validate:"required"`
	PatientID       *uuid.UUID `json:"patient_id" validate:"omitempty"` // staff booking on behalf of a patient
	StartsAt        time.Time  `json:"starts_at" validate:"required"`
	IntervalMinutes int        `json:"interval_minutes" validate:"required,oneof=30 60"`
	Reason          string     `json:"reason" validate:"omitempty,max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ListAppointmentsRequest struct {
	ClinicID           *uuid.UUID `validate:"omitempty"`
	DoctorID           *uuid.UUID `validate:"omitempty"`
	PatientID          *uuid.UUID `validate:"omitempty"`
	Status             string     `validate:"omitempty,oneof=scheduled in_progress completed cancelled no_show"`
	ConsultationStatus string     `validate:"omitempty,oneof=scheduled waiting in_progress completed"`
	From               string     `validate:"omitempty,isodate"`
	To                 string     `validate:"omitempty,isodate"`
	Page               int        `validate:"min=1"`
	Limit              int        `validate:"min=1,max=100"`
}

type ClinicMetricsRequest struct {
	From string `validate:"required,isodate"`
	To   string `validate:"required,isodate"`
}

// Response DTOs

type AppointmentResponse struct {
	ID                          uuid.UUID  `json:"id"`
	ClinicID                    uuid.UUID  `json:"clinic_id"`
	DoctorID                    uuid.UUID  `json:"doctor_id"`
	PatientID                   uuid.UUID  `json:"patient_id"`
	StartsAt                    time.Time  `json:"starts_at"`
	EndsAt                      time.Time  `json:"ends_at"`
	Status                      string     `json:"status"`
	ConsultationStatus          string     `json:"consultation_status"`
	Reason                      string     `json:"reason,omitempty"`
	IdentityValidated           bool       `json:"identity_validated"`
	IdentityValidatedAt         *time.Time `json:"identity_validated_at,omitempty"`
	IdentityValidatedBy         *uuid.UUID `json:"identity_validated_by,omitempty"`
	PatientArrivedAt            *time.Time `json:"patient_arrived_at,omitempty"`
	MarkedArrivedBy             *uuid.UUID `json:"marked_arrived_by,omitempty"`
	QueueNumber                 *int       `json:"queue_number,omitempty"`
	ConsultationStartedAt       *time.Time `json:"consultation_started_at,omitempty"`
	ConsultationStartedBy       *uuid.UUID `json:"consultation_started_by,omitempty"`
	ConsultationEndedAt         *time.Time `json:"consultation_ended_at,omitempty"`
	ConsultationEndedBy         *uuid.UUID `json:"consultation_ended_by,omitempty"`
	WaitingTimeMinutes          *int       `json:"waiting_time_minutes"`
	ConsultationDurationMinutes *int       `json:"consultation_duration_minutes"`
	TotalClinicTimeMinutes      *int       `json:"total_clinic_time_minutes"`
	CancelledAt                 *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason          string     `json:"cancellation_reason,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
}

// WaitingRoomResponse lists today's waiting patients in arrival order
type WaitingRoomResponse struct {
	ClinicID uuid.UUID             `json:"clinic_id"`
	Date     string                `json:"date"`
	Patients []AppointmentResponse `json:"patients"`
}

type ClinicMetricsResponse struct {
	ClinicID                  uuid.UUID `json:"clinic_id"`
	From                      string    `json:"from"`
	To                        string    `json:"to"`
	CompletedCount            int64     `json:"completed_count"`
	AvgWaitingMinutes         float64   `json:"avg_waiting_minutes"`
	AvgConsultationMinutes    float64   `json:"avg_consultation_minutes"`
	AvgTotalClinicTimeMinutes float64   `json:"avg_total_clinic_time_minutes"`
}
