package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentFilter is a domain-level filter for querying appointments.
// Zero values are ignored.
type AppointmentFilter struct {
	ClinicID           *uuid.UUID
	DoctorID           *uuid.UUID
	PatientID          *uuid.UUID
	Status             AppointmentStatus
	ConsultationStatus ConsultationStatus
	From               *time.Time // starts_at >= From
	To                 *time.Time // starts_at < To
	ExcludeCancelled   bool
	Limit              int
	Offset             int
}

// ClinicMetrics aggregates timing figures over completed appointments
type ClinicMetrics struct {
	ClinicID                  uuid.UUID `json:"clinic_id"`
	CompletedCount            int64     `json:"completed_count"`
	AvgWaitingMinutes         float64   `json:"avg_waiting_minutes"`
	AvgConsultationMinutes    float64   `json:"avg_consultation_minutes"`
	AvgTotalClinicTimeMinutes float64   `json:"avg_total_clinic_time_minutes"`
}
