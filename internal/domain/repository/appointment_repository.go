package repository

import (
	"context"
	"time"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	Find(ctx context.Context, filter *entity.AppointmentFilter) ([]entity.Appointment, int64, error)
	// FindActiveInRange returns non-cancelled appointments of a clinic
	// overlapping [from, to).
	FindActiveInRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]entity.Appointment, error)
	// UpdateIfState writes columns of appointment only while the stored
	// consultation_status and status still equal expected. A lost race
	// yields an entity.ErrConflict.
	UpdateIfState(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentState, columns ...string) error
	// ApplyIdentityValidation stores the identity flag (when record is
	// authoritative) and appends record to the history in one transaction.
	ApplyIdentityValidation(ctx context.Context, appointment *entity.Appointment, record *entity.IdentityValidation) error
	Metrics(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*entity.ClinicMetrics, error)
}
