package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/domain/repository"
	"clinic-practice-api/internal/service"
	"clinic-practice-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

var (
	ErrAppointmentAccessDenied = errors.New("you do not have access to this appointment")
	ErrClinicAccessDenied      = errors.New("you do not have access to this clinic")
)

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID uuid.UUID
	RoleID int
}

func (a Actor) Role() string {
	return entity.RoleNameByID(a.RoleID)
}

func (a Actor) IsAdmin() bool {
	return a.RoleID == entity.RoleIDAdmin
}

// withRetry runs op and repeats it exactly once when storage fails. Flow
// errors (conflicts, not found) are final and returned untouched.
func withRetry(ctx context.Context, log *logrus.Logger, action string, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}
	var flowErr *entity.FlowError
	if errors.As(err, &flowErr) {
		return err
	}
	if ctx.Err() != nil {
		return entity.PersistenceFailure(err)
	}

	log.Warnf("Failed to %s, retrying once: %+v", action, err)
	if err = op(ctx); err == nil {
		return nil
	}
	if errors.As(err, &flowErr) {
		return err
	}
	log.Warnf("Failed to %s after retry: %+v", action, err)
	return entity.PersistenceFailure(err)
}

// persistTransition writes columns of appointment guarded by expected, the
// state it was loaded in. When storage failed and the retry then finds the
// row already moved, the row is read back: if it holds this exact
// transition, the first write committed and only its reply was lost.
func persistTransition(ctx context.Context, log *logrus.Logger, repo repository.AppointmentRepository, appointment *entity.Appointment, expected entity.AppointmentState, columns []string) error {
	attempts := 0
	err := withRetry(ctx, log, "update appointment", func(ctx context.Context) error {
		attempts++
		return repo.UpdateIfState(ctx, appointment, expected, columns...)
	})
	if err == nil || attempts < 2 || !errors.Is(err, entity.ErrConflict) {
		return err
	}

	stored, findErr := repo.FindByID(ctx, appointment.ID)
	if findErr != nil {
		log.Warnf("Failed to re-read appointment %s after conflicting retry: %+v", appointment.ID, findErr)
		return err
	}
	if !appointment.SameTransition(stored) {
		return err
	}
	log.Warnf("Update of appointment %s had committed before its reply was lost", appointment.ID)
	return nil
}

func findAppointment(ctx context.Context, log *logrus.Logger, repo repository.AppointmentRepository, id uuid.UUID) (*entity.Appointment, error) {
	var appointment *entity.Appointment
	err := withRetry(ctx, log, "find appointment", func(ctx context.Context) error {
		var err error
		appointment, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, entity.NotFound("appointment not found")
	}
	return appointment, nil
}

// authorizeStaff allows admins, the appointment's doctor and assistants
// assigned to its clinic.
func authorizeStaff(ctx context.Context, clinicRepo repository.ClinicRepository, a *entity.Appointment, actor Actor) error {
	switch actor.RoleID {
	case entity.RoleIDAdmin:
		return nil
	case entity.RoleIDDoctor:
		if a.DoctorID == actor.UserID {
			return nil
		}
	case entity.RoleIDAssistant:
		assigned, err := clinicRepo.IsAssistant(ctx, a.ClinicID, actor.UserID)
		if err != nil {
			return err
		}
		if assigned {
			return nil
		}
	}
	return ErrAppointmentAccessDenied
}

// authorizeViewer additionally lets a patient read their own appointment
func authorizeViewer(ctx context.Context, clinicRepo repository.ClinicRepository, a *entity.Appointment, actor Actor) error {
	if actor.RoleID == entity.RoleIDPatient {
		if a.PatientID == actor.UserID {
			return nil
		}
		return ErrAppointmentAccessDenied
	}
	return authorizeStaff(ctx, clinicRepo, a, actor)
}

// authorizeClinic allows admins, the owning doctor and, when assistantsAllowed,
// the clinic's assistants.
func authorizeClinic(ctx context.Context, clinicRepo repository.ClinicRepository, clinic *entity.Clinic, actor Actor, assistantsAllowed bool) error {
	switch actor.RoleID {
	case entity.RoleIDAdmin:
		return nil
	case entity.RoleIDDoctor:
		if clinic.DoctorID == actor.UserID {
			return nil
		}
	case entity.RoleIDAssistant:
		if !assistantsAllowed {
			break
		}
		assigned, err := clinicRepo.IsAssistant(ctx, clinic.ID, actor.UserID)
		if err != nil {
			return err
		}
		if assigned {
			return nil
		}
	}
	return ErrClinicAccessDenied
}

// flowEffects bundles what happens after a successful appointment write:
// the UI notification, the audit entry and the transition metrics. All of
// it is best effort.
type flowEffects struct {
	log          *logrus.Logger
	publisher    service.EventPublisher
	auditService service.AuditService
	metrics      *metrics.Collector
}

func (f *flowEffects) publish(ctx context.Context, eventType string, a *entity.Appointment, actorID uuid.UUID, at time.Time) {
	event := entity.NewAppointmentEvent(eventType, a, &actorID, at)
	if err := f.publisher.Publish(ctx, event); err != nil {
		f.log.Warnf("Failed to publish %s for appointment %s: %+v", eventType, a.ID, err)
		f.metrics.EventsPublished.WithLabelValues("failed").Inc()
		return
	}
	f.metrics.EventsPublished.WithLabelValues("ok").Inc()
}

func (f *flowEffects) audit(ctx context.Context, actorID uuid.UUID, action string, a *entity.Appointment, before map[string]interface{}) {
	if err := f.auditService.LogUpdate(ctx, &actorID, action, "appointment", a.ID.String(), before, appointmentSnapshot(a)); err != nil {
		f.log.Warnf("Failed to create audit log: %+v", err)
	}
}

// observe counts a transition attempt by its outcome
func (f *flowEffects) observe(transition string, err error) {
	f.metrics.TransitionsTotal.WithLabelValues(transition, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var flowErr *entity.FlowError
	if errors.As(err, &flowErr) {
		return string(flowErr.Kind)
	}
	if errors.Is(err, ErrAppointmentAccessDenied) {
		return "forbidden"
	}
	return "error"
}

func appointmentSnapshot(a *entity.Appointment) map[string]interface{} {
	return map[string]interface{}{
		"status":              a.Status,
		"consultation_status": a.ConsultationStatus,
		"identity_validated":  a.IdentityValidated,
		"queue_number":        a.QueueNumber,
	}
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// isForeignKeyError checks if the error is a PostgreSQL foreign key violation
// containing the specified constraint name
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		if pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
