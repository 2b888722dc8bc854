package usecase

import (
	"context"
	"time"

	"clinic-practice-api/internal/converter"
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/domain/repository"
	"clinic-practice-api/internal/service"
	"clinic-practice-api/pkg/metrics"
	"clinic-practice-api/pkg/tracer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ConsultationUsecase drives an appointment through the visit:
//
//	scheduled → waiting → in_progress → completed
//
// Each step validates the current state in memory, then persists with a
// compare-and-swap on the state it was loaded in. A concurrent writer makes the
// second caller fail with a conflict instead of overwriting.
type ConsultationUsecase interface {
	MarkArrived(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error)
	StartConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error)
	EndConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error)
}

type consultationUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	noteRepo        repository.ConsultationNoteRepository
	clinicRepo      repository.ClinicRepository
	queue           service.QueueTicketer
	effects         *flowEffects
	defaultLoc      *time.Location
	now             func() time.Time
}

func NewConsultationUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	noteRepo repository.ConsultationNoteRepository,
	clinicRepo repository.ClinicRepository,
	queue service.QueueTicketer,
	publisher service.EventPublisher,
	auditService service.AuditService,
	collector *metrics.Collector,
	defaultLoc *time.Location,
) ConsultationUsecase {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &consultationUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		noteRepo:        noteRepo,
		clinicRepo:      clinicRepo,
		queue:           queue,
		effects: &flowEffects{
			log:          log,
			publisher:    publisher,
			auditService: auditService,
			metrics:      collector,
		},
		defaultLoc: defaultLoc,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (u *consultationUsecase) MarkArrived(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error) {
	ctx, span := tracer.Start(ctx, "consultation.MarkArrived")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", appointmentID.String()))

	appointment, err := u.load(ctx, appointmentID, actor)
	if err != nil {
		return nil, u.fail(span, "arrive", err)
	}

	before := appointmentSnapshot(appointment)
	expected := appointment.State()
	now := u.now()
	if err := appointment.MarkArrived(actor.UserID, now); err != nil {
		return nil, u.fail(span, "arrive", err)
	}
	appointment.QueueNumber = u.nextTicket(ctx, appointment, now)

	if err := u.persist(ctx, appointment, expected, entity.ArrivalColumns); err != nil {
		return nil, u.fail(span, "arrive", err)
	}

	u.succeed("arrive", appointment, actor)
	u.effects.publish(ctx, entity.EventPatientArrived, appointment, actor.UserID, now)
	u.effects.audit(ctx, actor.UserID, entity.AuditActionPatientArrived, appointment, before)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *consultationUsecase) StartConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error) {
	ctx, span := tracer.Start(ctx, "consultation.StartConsultation")
	defer span.End()
	span.SetAttributes(
		attribute.String("appointment.id", appointmentID.String()),
		attribute.String("actor.role", actor.Role()),
	)

	appointment, err := u.load(ctx, appointmentID, actor)
	if err != nil {
		return nil, u.fail(span, "start", err)
	}

	before := appointmentSnapshot(appointment)
	expected := appointment.State()
	now := u.now()
	if err := appointment.StartConsultation(actor.UserID, actor.Role(), now); err != nil {
		return nil, u.fail(span, "start", err)
	}

	if err := u.persist(ctx, appointment, expected, entity.StartColumns); err != nil {
		return nil, u.fail(span, "start", err)
	}

	u.succeed("start", appointment, actor)
	u.effects.metrics.WaitingMinutes.Observe(float64(*appointment.WaitingTimeMinutes))
	u.effects.publish(ctx, entity.EventConsultationStarted, appointment, actor.UserID, now)
	u.effects.audit(ctx, actor.UserID, entity.AuditActionConsultationStart, appointment, before)

	return converter.AppointmentToResponse(appointment), nil
}

// EndConsultation completes the visit. Only the doctor (or an admin) may
// end it, and a note with a diagnosis must already be saved.
func (u *consultationUsecase) EndConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error) {
	ctx, span := tracer.Start(ctx, "consultation.EndConsultation")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", appointmentID.String()))

	if actor.RoleID != entity.RoleIDDoctor && !actor.IsAdmin() {
		return nil, u.fail(span, "end", ErrAppointmentAccessDenied)
	}

	appointment, err := u.load(ctx, appointmentID, actor)
	if err != nil {
		return nil, u.fail(span, "end", err)
	}

	var note *entity.ConsultationNote
	err = withRetry(ctx, u.log, "find consultation note", func(ctx context.Context) error {
		var err error
		note, err = u.noteRepo.FindByAppointmentID(ctx, appointment.ID)
		return err
	})
	if err != nil {
		return nil, u.fail(span, "end", err)
	}

	before := appointmentSnapshot(appointment)
	expected := appointment.State()
	now := u.now()
	if err := appointment.EndConsultation(actor.UserID, note, now); err != nil {
		return nil, u.fail(span, "end", err)
	}

	if err := u.persist(ctx, appointment, expected, entity.EndColumns); err != nil {
		return nil, u.fail(span, "end", err)
	}

	u.succeed("end", appointment, actor)
	u.effects.metrics.ConsultationMinutes.Observe(float64(*appointment.ConsultationDurationMinutes))
	u.effects.publish(ctx, entity.EventConsultationEnded, appointment, actor.UserID, now)
	u.effects.audit(ctx, actor.UserID, entity.AuditActionConsultationEnd, appointment, before)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *consultationUsecase) load(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*entity.Appointment, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}
	return appointment, nil
}

// persist writes columns only if the stored state is still expected
func (u *consultationUsecase) persist(ctx context.Context, appointment *entity.Appointment, expected entity.AppointmentState, columns []string) error {
	return persistTransition(ctx, u.log, u.appointmentRepo, appointment, expected, columns)
}

// nextTicket assigns the waiting-room number. A Redis outage must not block
// arrival, so failures leave the number empty.
func (u *consultationUsecase) nextTicket(ctx context.Context, appointment *entity.Appointment, now time.Time) *int {
	if u.queue == nil {
		return nil
	}
	loc := u.defaultLoc
	if appointment.Clinic != nil {
		loc = appointment.Clinic.Location(u.defaultLoc)
	}
	n, err := u.queue.NextTicket(ctx, appointment.ClinicID, now.In(loc))
	if err != nil {
		u.log.Warnf("Failed to assign queue number for appointment %s: %+v", appointment.ID, err)
		return nil
	}
	return &n
}

func (u *consultationUsecase) succeed(transition string, appointment *entity.Appointment, actor Actor) {
	u.effects.observe(transition, nil)
	u.log.WithFields(logrus.Fields{
		"appointment_id":      appointment.ID,
		"transition":          transition,
		"consultation_status": appointment.ConsultationStatus,
		"actor_id":            actor.UserID,
		"actor_role":          actor.Role(),
	}).Info("Consultation transition applied")
}

func (u *consultationUsecase) fail(span trace.Span, transition string, err error) error {
	u.effects.observe(transition, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
