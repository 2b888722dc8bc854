package entity

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the coarse booking status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// ConsultationStatus is the in-visit lifecycle of an appointment
//
//	scheduled → waiting → in_progress → completed
type ConsultationStatus string

const (
	ConsultationStatusScheduled  ConsultationStatus = "scheduled"
	ConsultationStatusWaiting    ConsultationStatus = "waiting"
	ConsultationStatusInProgress ConsultationStatus = "in_progress"
	ConsultationStatusCompleted  ConsultationStatus = "completed"
)

// Columns written by each transition. The repository updates exactly these
// columns, guarded by the state the appointment was loaded in.
var (
	ArrivalColumns      = []string{"patient_arrived_at", "marked_arrived_by", "queue_number", "consultation_status", "updated_at"}
	StartColumns        = []string{"consultation_started_at", "consultation_started_by", "consultation_status", "status", "waiting_time_minutes", "updated_at"}
	EndColumns          = []string{"consultation_ended_at", "consultation_ended_by", "consultation_status", "status", "consultation_duration_minutes", "total_clinic_time_minutes", "updated_at"}
	IdentityColumns     = []string{"identity_validated", "identity_validated_at", "identity_validated_by", "updated_at"}
	CancellationColumns = []string{"status", "cancelled_at", "cancelled_by", "cancellation_reason", "updated_at"}
	NoShowColumns       = []string{"status", "updated_at"}
)

// Appointment represents one scheduled patient/doctor encounter at a clinic
type Appointment struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"doctor_id"`
	PatientID          uuid.UUID          `gorm:"type:uuid;not null;index" json:"patient_id"`
	ClinicID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"clinic_id"`
	StartsAt           time.Time          `gorm:"not null;index" json:"starts_at"`
	EndsAt             time.Time          `gorm:"not null" json:"ends_at"`
	Status             AppointmentStatus  `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	ConsultationStatus ConsultationStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"consultation_status"`
	Reason             string             `gorm:"type:text" json:"reason,omitempty"`
	Notes              string             `gorm:"type:text" json:"notes,omitempty"`

	IdentityValidated   bool       `gorm:"not null;default:false" json:"identity_validated"`
	IdentityValidatedAt *time.Time `json:"identity_validated_at,omitempty"`
	IdentityValidatedBy *uuid.UUID `gorm:"type:uuid" json:"identity_validated_by,omitempty"`

	PatientArrivedAt      *time.Time `json:"patient_arrived_at,omitempty"`
	MarkedArrivedBy       *uuid.UUID `gorm:"type:uuid" json:"marked_arrived_by,omitempty"`
	QueueNumber           *int       `json:"queue_number,omitempty"`
	ConsultationStartedAt *time.Time `json:"consultation_started_at,omitempty"`
	ConsultationStartedBy *uuid.UUID `gorm:"type:uuid" json:"consultation_started_by,omitempty"`
	ConsultationEndedAt   *time.Time `json:"consultation_ended_at,omitempty"`
	ConsultationEndedBy   *uuid.UUID `gorm:"type:uuid" json:"consultation_ended_by,omitempty"`

	WaitingTimeMinutes          *int `json:"waiting_time_minutes,omitempty"`
	ConsultationDurationMinutes *int `json:"consultation_duration_minutes,omitempty"`
	TotalClinicTimeMinutes      *int `json:"total_clinic_time_minutes,omitempty"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *uuid.UUID `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Clinic *Clinic `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// AppointmentState is the pair of statuses a conditional write is guarded
// by. Cancel and no-show move only Status, so both columns are compared.
type AppointmentState struct {
	ConsultationStatus ConsultationStatus
	Status             AppointmentStatus
}

func (a *Appointment) State() AppointmentState {
	return AppointmentState{ConsultationStatus: a.ConsultationStatus, Status: a.Status}
}

// SameTransition reports whether other carries exactly the visit stamps of
// a: both statuses, arrival, start, end and cancellation with their actors.
// Times are compared at the microsecond precision PostgreSQL stores.
func (a *Appointment) SameTransition(other *Appointment) bool {
	if other == nil || a.State() != other.State() {
		return false
	}
	return sameInstant(a.PatientArrivedAt, other.PatientArrivedAt) &&
		sameActor(a.MarkedArrivedBy, other.MarkedArrivedBy) &&
		sameInstant(a.ConsultationStartedAt, other.ConsultationStartedAt) &&
		sameActor(a.ConsultationStartedBy, other.ConsultationStartedBy) &&
		sameInstant(a.ConsultationEndedAt, other.ConsultationEndedAt) &&
		sameActor(a.ConsultationEndedBy, other.ConsultationEndedBy) &&
		sameInstant(a.CancelledAt, other.CancelledAt) &&
		sameActor(a.CancelledBy, other.CancelledBy)
}

func sameInstant(x, y *time.Time) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return x.Truncate(time.Microsecond).Equal(y.Truncate(time.Microsecond))
}

func sameActor(x, y *uuid.UUID) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return *x == *y
}

// IsTerminal reports whether no further transition is possible
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return a.ConsultationStatus == ConsultationStatusCompleted
}

// MarkArrived records the patient's arrival and moves the visit to waiting.
// The waiting-room queue number is assigned separately.
func (a *Appointment) MarkArrived(actorID uuid.UUID, now time.Time) error {
	if err := a.requireOpen("mark the patient as arrived"); err != nil {
		return err
	}
	if a.ConsultationStatus != ConsultationStatusScheduled {
		return PreconditionFailed("patient has already been marked as arrived (consultation is " + string(a.ConsultationStatus) + ")")
	}

	a.PatientArrivedAt = &now
	a.MarkedArrivedBy = &actorID
	a.ConsultationStatus = ConsultationStatusWaiting
	a.UpdatedAt = now
	return nil
}

// StartConsultation moves a waiting, identity-validated patient into the
// consulting room. The identity gate is evaluated for actorRole.
func (a *Appointment) StartConsultation(actorID uuid.UUID, actorRole string, now time.Time) error {
	if err := a.requireOpen("start the consultation"); err != nil {
		return err
	}
	if a.ConsultationStatus == ConsultationStatusScheduled || a.PatientArrivedAt == nil {
		return PreconditionFailed("patient must be marked arrived before starting consultation")
	}
	if a.ConsultationStatus != ConsultationStatusWaiting {
		return PreconditionFailed("consultation has already started")
	}
	if decision := CanStartConsultation(a, actorRole); !decision.Allowed {
		return ValidationRequired(decision.Reason)
	}

	started := now
	if started.Before(*a.PatientArrivedAt) {
		started = *a.PatientArrivedAt
	}
	waiting := minutesBetween(*a.PatientArrivedAt, started)

	a.ConsultationStartedAt = &started
	a.ConsultationStartedBy = &actorID
	a.ConsultationStatus = ConsultationStatusInProgress
	a.Status = AppointmentStatusInProgress
	a.WaitingTimeMinutes = &waiting
	a.UpdatedAt = now
	return nil
}

// EndConsultation finalizes the visit. note must carry a diagnosis.
func (a *Appointment) EndConsultation(actorID uuid.UUID, note *ConsultationNote, now time.Time) error {
	if a.ConsultationStatus == ConsultationStatusCompleted {
		return PreconditionFailed("consultation has already been completed")
	}
	if err := a.requireOpen("end the consultation"); err != nil {
		return err
	}
	if a.ConsultationStatus != ConsultationStatusInProgress || a.ConsultationStartedAt == nil {
		return PreconditionFailed("consultation must be in progress before it can be ended")
	}
	if note == nil || !note.HasDiagnosis() {
		return MissingRequiredField("a consultation note with a diagnosis is required to end the consultation")
	}

	ended := now
	if ended.Before(*a.ConsultationStartedAt) {
		ended = *a.ConsultationStartedAt
	}
	duration := minutesBetween(*a.ConsultationStartedAt, ended)

	a.ConsultationEndedAt = &ended
	a.ConsultationEndedBy = &actorID
	a.ConsultationStatus = ConsultationStatusCompleted
	a.Status = AppointmentStatusCompleted
	a.ConsultationDurationMinutes = &duration
	if a.PatientArrivedAt != nil {
		total := minutesBetween(*a.PatientArrivedAt, ended)
		a.TotalClinicTimeMinutes = &total
	} else {
		a.TotalClinicTimeMinutes = nil
	}
	a.UpdatedAt = now
	return nil
}

// ApplyIdentityValidation marks the patient's identity as confirmed. It
// returns true when this call is the one that flipped the flag; later calls
// only add history.
func (a *Appointment) ApplyIdentityValidation(validatorID uuid.UUID, now time.Time) (bool, error) {
	if a.Status == AppointmentStatusCancelled || a.Status == AppointmentStatusNoShow {
		return false, PreconditionFailed("cannot validate identity for a " + string(a.Status) + " appointment")
	}
	if a.ConsultationStatus == ConsultationStatusCompleted {
		return false, PreconditionFailed("consultation has already been completed")
	}
	if a.IdentityValidated {
		return false, nil
	}

	a.IdentityValidated = true
	a.IdentityValidatedAt = &now
	a.IdentityValidatedBy = &validatorID
	a.UpdatedAt = now
	return true, nil
}

// Cancel cancels an appointment whose consultation has not started
func (a *Appointment) Cancel(actorID uuid.UUID, reason string, now time.Time) error {
	if a.Status == AppointmentStatusCancelled {
		return PreconditionFailed("appointment is already cancelled")
	}
	if err := a.requireOpen("cancel the appointment"); err != nil {
		return err
	}
	if a.ConsultationStatus != ConsultationStatusScheduled && a.ConsultationStatus != ConsultationStatusWaiting {
		return PreconditionFailed("cannot cancel an appointment once the consultation has started")
	}

	a.Status = AppointmentStatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &actorID
	a.CancellationReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
	return nil
}

// MarkNoShow records that the patient never arrived
func (a *Appointment) MarkNoShow(now time.Time) error {
	if err := a.requireOpen("mark the appointment as no-show"); err != nil {
		return err
	}
	if a.ConsultationStatus != ConsultationStatusScheduled {
		return PreconditionFailed("patient has already arrived")
	}

	a.Status = AppointmentStatusNoShow
	a.UpdatedAt = now
	return nil
}

// CheckInvariants verifies the timestamp ordering rules of a persisted
// appointment. It is used when rows are parsed at the repository boundary.
func (a *Appointment) CheckInvariants() error {
	if a.ConsultationStartedAt != nil {
		if a.PatientArrivedAt == nil || a.PatientArrivedAt.After(*a.ConsultationStartedAt) {
			return PreconditionFailed("consultation started without a prior arrival")
		}
		if !a.IdentityValidated {
			return PreconditionFailed("consultation started without identity validation")
		}
	}
	if a.ConsultationEndedAt != nil {
		if a.ConsultationStartedAt == nil || a.ConsultationStartedAt.After(*a.ConsultationEndedAt) {
			return PreconditionFailed("consultation ended without a prior start")
		}
	}
	if a.Status == AppointmentStatusCompleted && a.ConsultationStatus != ConsultationStatusCompleted {
		return PreconditionFailed("appointment completed without a completed consultation")
	}
	return nil
}

func (a *Appointment) requireOpen(action string) error {
	switch a.Status {
	case AppointmentStatusCancelled:
		return PreconditionFailed("cannot " + action + ": appointment is cancelled")
	case AppointmentStatusNoShow:
		return PreconditionFailed("cannot " + action + ": appointment was marked as no-show")
	case AppointmentStatusCompleted:
		return PreconditionFailed("cannot " + action + ": appointment is completed")
	}
	return nil
}

// minutesBetween rounds to the nearest whole minute and never goes negative
func minutesBetween(from, to time.Time) int {
	m := int(math.Round(to.Sub(from).Minutes()))
	if m < 0 {
		return 0
	}
	return m
}
