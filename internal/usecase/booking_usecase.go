package usecase

import (
	"context"
	"errors"
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
)

var (
	ErrSlotTaken         = entity.Conflict("this time slot has just been booked, please choose another")
	ErrSlotUnavailable   = errors.New("the requested time slot is not offered by this clinic")
	ErrClinicInactive    = errors.New("clinic is not accepting appointments")
	ErrPatientRequired   = errors.New("patient_id is required when booking on behalf of a patient")
	ErrPatientNotFound   = entity.NotFound("patient not found")
	ErrInvalidDateRange  = errors.New("from must not be after to")
	ErrClinicIDRequired  = errors.New("clinic_id is required")
	ErrBookingNotAllowed = errors.New("your role cannot book appointments")
)

// BookingUsecase covers the appointment lifecycle around the visit itself:
// booking, cancellation, no-shows and the read side used by clinic staff.
type BookingUsecase interface {
	BookAppointment(ctx context.Context, actor Actor, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	CancelAppointment(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error)
	ListAppointments(ctx context.Context, actor Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error)
	GetWaitingRoom(ctx context.Context, clinicID uuid.UUID, actor Actor, date string) (*dto.WaitingRoomResponse, error)
	GetClinicMetrics(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.ClinicMetricsRequest) (*dto.ClinicMetricsResponse, error)
}

type bookingUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	clinicRepo      repository.ClinicRepository
	userRepo        repository.UserRepository
	slots           *slotGenerator
	effects         *flowEffects
	defaultLoc      *time.Location
	now             func() time.Time
}

func NewBookingUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	clinicRepo repository.ClinicRepository,
	userRepo repository.UserRepository,
	availabilityRepo repository.AvailabilityRepository,
	publisher service.EventPublisher,
	auditService service.AuditService,
	collector *metrics.Collector,
	defaultLoc *time.Location,
) BookingUsecase {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &bookingUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		clinicRepo:      clinicRepo,
		userRepo:        userRepo,
		slots:           newSlotGenerator(log, availabilityRepo, appointmentRepo, defaultLoc),
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

// BookAppointment reserves one generated slot. The database's partial
// unique index on (clinic_id, starts_at) settles races between two
// patients picking the same slot.
func (u *bookingUsecase) BookAppointment(ctx context.Context, actor Actor, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	ctx, span := tracer.Start(ctx, "booking.BookAppointment")
	defer span.End()

	if !validInterval(req.IntervalMinutes) {
		return nil, ErrInvalidInterval
	}

	clinic, err := findClinic(ctx, u.log, u.clinicRepo, req.ClinicID)
	if err != nil {
		return nil, err
	}
	if !clinic.IsActive {
		return nil, ErrClinicInactive
	}

	patientID, err := u.resolvePatient(ctx, clinic, actor, req.PatientID)
	if err != nil {
		return nil, err
	}

	startsAt := req.StartsAt.UTC()
	offered, err := u.slots.contains(ctx, clinic, startsAt, req.IntervalMinutes)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, ErrSlotUnavailable
	}

	appointment := &entity.Appointment{
		DoctorID:           clinic.DoctorID,
		PatientID:          patientID,
		ClinicID:           clinic.ID,
		StartsAt:           startsAt,
		EndsAt:             startsAt.Add(time.Duration(req.IntervalMinutes) * time.Minute),
		Status:             entity.AppointmentStatusScheduled,
		ConsultationStatus: entity.ConsultationStatusScheduled,
		Reason:             req.Reason,
	}

	err = withRetry(ctx, u.log, "create appointment", func(ctx context.Context) error {
		appointment.ID = uuid.Nil
		err := u.appointmentRepo.Create(ctx, appointment)
		if isDuplicateKeyError(err, "appointments_clinic_slot_key") {
			return ErrSlotTaken
		}
		if isForeignKeyError(err, "patient") {
			return ErrPatientNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"clinic_id":      clinic.ID,
		"starts_at":      appointment.StartsAt,
	}).Info("Appointment booked")

	now := u.now()
	u.effects.metrics.AppointmentsBooked.Inc()
	u.effects.publish(ctx, entity.EventAppointmentBooked, appointment, actor.UserID, now)
	if err := u.effects.auditService.LogCreate(ctx, &actor.UserID, entity.AuditActionAppointmentBook, "appointment", appointment.ID.String(), appointmentSnapshot(appointment)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.AppointmentToResponse(appointment), nil
}

// resolvePatient returns who the appointment is for. Patients book for
// themselves; clinic staff must name the patient.
func (u *bookingUsecase) resolvePatient(ctx context.Context, clinic *entity.Clinic, actor Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.RoleID == entity.RoleIDPatient {
		return actor.UserID, nil
	}
	if !actor.IsAdmin() && !entity.IsStaff(actor.RoleID) {
		return uuid.Nil, ErrBookingNotAllowed
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, true); err != nil {
		return uuid.Nil, err
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, ErrPatientRequired
	}

	patient, err := u.userRepo.FindByID(ctx, *requested)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", *requested, err)
		return uuid.Nil, entity.PersistenceFailure(err)
	}
	if patient == nil || patient.RoleID != entity.RoleIDPatient || !patient.Active() {
		return uuid.Nil, ErrPatientNotFound
	}
	return patient.ID, nil
}

func (u *bookingUsecase) CancelAppointment(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeViewer(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	var reason string
	if req != nil {
		reason = req.Reason
	}

	before := appointmentSnapshot(appointment)
	expected := appointment.State()
	now := u.now()
	if err := appointment.Cancel(actor.UserID, reason, now); err != nil {
		u.effects.observe("cancel", err)
		return nil, err
	}

	err = persistTransition(ctx, u.log, u.appointmentRepo, appointment, expected, entity.CancellationColumns)
	u.effects.observe("cancel", err)
	if err != nil {
		return nil, err
	}

	u.effects.publish(ctx, entity.EventAppointmentCancelled, appointment, actor.UserID, now)
	u.effects.audit(ctx, actor.UserID, entity.AuditActionAppointmentCancel, appointment, before)

	return converter.AppointmentToResponse(appointment), nil
}

func (u *bookingUsecase) MarkNoShow(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	before := appointmentSnapshot(appointment)
	expected := appointment.State()
	now := u.now()
	if err := appointment.MarkNoShow(now); err != nil {
		u.effects.observe("no_show", err)
		return nil, err
	}

	err = persistTransition(ctx, u.log, u.appointmentRepo, appointment, expected, entity.NoShowColumns)
	u.effects.observe("no_show", err)
	if err != nil {
		return nil, err
	}

	u.effects.publish(ctx, entity.EventAppointmentNoShow, appointment, actor.UserID, now)
	u.effects.audit(ctx, actor.UserID, entity.AuditActionAppointmentNoShow, appointment, before)

	return converter.AppointmentToResponse(appointment), nil
}

// ListAppointments scopes the query to what the actor may see: patients
// their own, doctors their clinics', assistants a clinic they work at.
func (u *bookingUsecase) ListAppointments(ctx context.Context, actor Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	filter := &entity.AppointmentFilter{
		ClinicID:           req.ClinicID,
		DoctorID:           req.DoctorID,
		PatientID:          req.PatientID,
		Status:             entity.AppointmentStatus(req.Status),
		ConsultationStatus: entity.ConsultationStatus(req.ConsultationStatus),
		Limit:              req.Limit,
		Offset:             (req.Page - 1) * req.Limit,
	}

	switch actor.RoleID {
	case entity.RoleIDPatient:
		filter.PatientID = &actor.UserID
	case entity.RoleIDDoctor:
		filter.DoctorID = &actor.UserID
	case entity.RoleIDAssistant:
		if req.ClinicID == nil {
			return nil, ErrClinicIDRequired
		}
		assigned, err := u.clinicRepo.IsAssistant(ctx, *req.ClinicID, actor.UserID)
		if err != nil {
			u.log.Warnf("Failed to check clinic assignment: %+v", err)
			return nil, entity.PersistenceFailure(err)
		}
		if !assigned {
			return nil, ErrClinicAccessDenied
		}
	case entity.RoleIDAdmin:
	default:
		return nil, ErrAppointmentAccessDenied
	}

	from, to, err := parseDateRange(req.From, req.To, u.defaultLoc)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = from, to

	var (
		appointments []entity.Appointment
		total        int64
	)
	err = withRetry(ctx, u.log, "query appointments", func(ctx context.Context) error {
		var err error
		appointments, total, err = u.appointmentRepo.Find(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
	}, nil
}

func (u *bookingUsecase) GetAppointment(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.AppointmentResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeViewer(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// GetWaitingRoom lists the patients waiting at a clinic on date (today when
// empty), in arrival order.
func (u *bookingUsecase) GetWaitingRoom(ctx context.Context, clinicID uuid.UUID, actor Actor, date string) (*dto.WaitingRoomResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, true); err != nil {
		return nil, err
	}

	loc := clinic.Location(u.defaultLoc)
	if date == "" {
		date = u.now().In(loc).Format(dateLayout)
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	next := day.AddDate(0, 0, 1)

	filter := &entity.AppointmentFilter{
		ClinicID:           &clinic.ID,
		ConsultationStatus: entity.ConsultationStatusWaiting,
		From:               &day,
		To:                 &next,
		ExcludeCancelled:   true,
	}
	var appointments []entity.Appointment
	err = withRetry(ctx, u.log, "query waiting room", func(ctx context.Context) error {
		var err error
		appointments, _, err = u.appointmentRepo.Find(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.WaitingRoomResponse{
		ClinicID: clinic.ID,
		Date:     date,
		Patients: converter.AppointmentsToResponses(appointments),
	}, nil
}

func (u *bookingUsecase) GetClinicMetrics(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.ClinicMetricsRequest) (*dto.ClinicMetricsResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, false); err != nil {
		return nil, err
	}

	from, to, err := parseDateRange(req.From, req.To, clinic.Location(u.defaultLoc))
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, ErrInvalidDate
	}

	var result *entity.ClinicMetrics
	err = withRetry(ctx, u.log, "compute clinic metrics", func(ctx context.Context) error {
		var err error
		result, err = u.appointmentRepo.Metrics(ctx, clinic.ID, *from, *to)
		return err
	})
	if err != nil {
		return nil, err
	}

	return converter.ClinicMetricsToResponse(result, req.From, req.To), nil
}

// parseDateRange turns inclusive YYYY-MM-DD bounds into [from, to+1day)
func parseDateRange(fromDate, toDate string, loc *time.Location) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromDate != "" {
		t, err := time.ParseInLocation(dateLayout, fromDate, loc)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		from = &t
	}
	if toDate != "" {
		t, err := time.ParseInLocation(dateLayout, toDate, loc)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, ErrInvalidDateRange
	}
	return from, to, nil
}
