package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-practice-api/internal/converter"
	"clinic-practice-api/internal/delivery/dto"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/internal/domain/repository"
	"clinic-practice-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrFollowUpBeforeVisit = errors.New("follow_up_date cannot be before the consultation date")
	ErrNoteNotFound        = entity.NotFound("consultation note not found")
)

type ConsultationNoteUsecase interface {
	// SaveNote creates or replaces the note of an appointment. Intermediate
	// saves may omit the diagnosis; ending the consultation requires it.
	SaveNote(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.SaveNoteRequest) (*dto.ConsultationNoteResponse, error)
	GetNote(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.ConsultationNoteResponse, error)
}

type consultationNoteUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	noteRepo        repository.ConsultationNoteRepository
	clinicRepo      repository.ClinicRepository
	auditService    service.AuditService
	defaultLoc      *time.Location
}

func NewConsultationNoteUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	noteRepo repository.ConsultationNoteRepository,
	clinicRepo repository.ClinicRepository,
	auditService service.AuditService,
	defaultLoc *time.Location,
) ConsultationNoteUsecase {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &consultationNoteUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		noteRepo:        noteRepo,
		clinicRepo:      clinicRepo,
		auditService:    auditService,
		defaultLoc:      defaultLoc,
	}
}

func (u *consultationNoteUsecase) SaveNote(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.SaveNoteRequest) (*dto.ConsultationNoteResponse, error) {
	if actor.RoleID != entity.RoleIDDoctor && !actor.IsAdmin() {
		return nil, ErrAppointmentAccessDenied
	}

	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	switch appointment.ConsultationStatus {
	case entity.ConsultationStatusInProgress, entity.ConsultationStatusCompleted:
	default:
		return nil, entity.PreconditionFailed("consultation must be started before writing notes")
	}

	followUp, err := u.parseFollowUp(appointment, req.FollowUpDate)
	if err != nil {
		return nil, err
	}

	var existing *entity.ConsultationNote
	err = withRetry(ctx, u.log, "find consultation note", func(ctx context.Context) error {
		var err error
		existing, err = u.noteRepo.FindByAppointmentID(ctx, appointment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	doctorID := appointment.DoctorID
	if actor.RoleID == entity.RoleIDDoctor {
		doctorID = actor.UserID
	}
	// a recorded diagnosis can be replaced but not blanked, so a draft save
	// racing EndConsultation cannot complete a visit without one
	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" && existing != nil {
		diagnosis = existing.Diagnosis
	}
	note := &entity.ConsultationNote{
		AppointmentID:   appointment.ID,
		DoctorID:        doctorID,
		PatientID:       appointment.PatientID,
		Diagnosis:       diagnosis,
		Prescription:    strings.TrimSpace(req.Prescription),
		Recommendations: strings.TrimSpace(req.Recommendations),
		FollowUpDate:    followUp,
	}
	if existing != nil {
		note.ID = existing.ID
		note.CreatedAt = existing.CreatedAt
	}

	err = withRetry(ctx, u.log, "save consultation note", func(ctx context.Context) error {
		return u.noteRepo.Upsert(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	// Edits after completion are allowed as late corrections but tracked
	// separately.
	action := entity.AuditActionNoteSave
	if appointment.ConsultationStatus == entity.ConsultationStatusCompleted {
		action = entity.AuditActionNoteAmend
	}
	var oldValue interface{}
	if existing != nil {
		oldValue = converter.ConsultationNoteToResponse(existing)
	}
	if err := u.auditService.LogUpdate(ctx, &actor.UserID, action, "consultation_note", appointment.ID.String(), oldValue, converter.ConsultationNoteToResponse(note)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.ConsultationNoteToResponse(note), nil
}

func (u *consultationNoteUsecase) GetNote(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.ConsultationNoteResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeViewer(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	var note *entity.ConsultationNote
	err = withRetry(ctx, u.log, "find consultation note", func(ctx context.Context) error {
		var err error
		note, err = u.noteRepo.FindByAppointmentID(ctx, appointment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}

	return converter.ConsultationNoteToResponse(note), nil
}

// parseFollowUp checks the follow-up date against the appointment's date in
// the clinic's time zone.
func (u *consultationNoteUsecase) parseFollowUp(appointment *entity.Appointment, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	followUp, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, ErrInvalidDate
	}

	loc := u.defaultLoc
	if appointment.Clinic != nil {
		loc = appointment.Clinic.Location(u.defaultLoc)
	}
	visit, _ := time.Parse(dateLayout, appointment.StartsAt.In(loc).Format(dateLayout))
	if followUp.Before(visit) {
		return nil, ErrFollowUpBeforeVisit
	}
	return &followUp, nil
}
