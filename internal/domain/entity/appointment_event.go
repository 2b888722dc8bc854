package entity

import (
	"time"

	"github.com/google/uuid"
)

// Appointment event types pushed to clinic UIs
const (
	EventAppointmentBooked    = "appointment.booked"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentNoShow    = "appointment.no_show"
	EventPatientArrived       = "consultation.patient_arrived"
	EventIdentityValidated    = "consultation.identity_validated"
	EventConsultationStarted  = "consultation.started"
	EventConsultationEnded    = "consultation.ended"
)

type AppointmentEvent struct {
	Type               string             `json:"type"`
	AppointmentID      uuid.UUID          `json:"appointment_id"`
	ClinicID           uuid.UUID          `json:"clinic_id"`
	DoctorID           uuid.UUID          `json:"doctor_id"`
	PatientID          uuid.UUID          `json:"patient_id"`
	Status             AppointmentStatus  `json:"status"`
	ConsultationStatus ConsultationStatus `json:"consultation_status"`
	ActorID            *uuid.UUID         `json:"actor_id,omitempty"`
	QueueNumber        *int               `json:"queue_number,omitempty"`
	OccurredAt         time.Time          `json:"occurred_at"`
}

// NewAppointmentEvent snapshots a's current state
func NewAppointmentEvent(eventType string, a *Appointment, actorID *uuid.UUID, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:               eventType,
		AppointmentID:      a.ID,
		ClinicID:           a.ClinicID,
		DoctorID:           a.DoctorID,
		PatientID:          a.PatientID,
		Status:             a.Status,
		ConsultationStatus: a.ConsultationStatus,
		ActorID:            actorID,
		QueueNumber:        a.QueueNumber,
		OccurredAt:         at,
	}
}
