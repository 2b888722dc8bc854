package usecase

import (
	"context"
	"strings"
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
)

type IdentityUsecase interface {
	// CanStartConsultation evaluates the identity gate for the actor without
	// changing anything.
	CanStartConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.StartEligibilityResponse, error)
	ValidateIdentity(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.ValidateIdentityRequest) (*dto.IdentityValidationResponse, error)
	GetIdentityEvidence(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.IdentityEvidenceResponse, error)
}

type identityUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	validationRepo  repository.IdentityValidationRepository
	documentRepo    repository.PatientDocumentRepository
	clinicRepo      repository.ClinicRepository
	effects         *flowEffects
	now             func() time.Time
}

func NewIdentityUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	validationRepo repository.IdentityValidationRepository,
	documentRepo repository.PatientDocumentRepository,
	clinicRepo repository.ClinicRepository,
	publisher service.EventPublisher,
	auditService service.AuditService,
	collector *metrics.Collector,
) IdentityUsecase {
	return &identityUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		validationRepo:  validationRepo,
		documentRepo:    documentRepo,
		clinicRepo:      clinicRepo,
		effects: &flowEffects{
			log:          log,
			publisher:    publisher,
			auditService: auditService,
			metrics:      collector,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (u *identityUsecase) CanStartConsultation(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.StartEligibilityResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	decision := entity.CanStartConsultation(appointment, actor.Role())
	return converter.GateDecisionToResponse(appointment, decision), nil
}

// ValidateIdentity confirms the patient's identity for an appointment. The
// first validation sets the appointment flag; every call appends to the
// history. Both writes happen in one transaction.
func (u *identityUsecase) ValidateIdentity(ctx context.Context, appointmentID uuid.UUID, actor Actor, req *dto.ValidateIdentityRequest) (*dto.IdentityValidationResponse, error) {
	ctx, span := tracer.Start(ctx, "identity.ValidateIdentity")
	defer span.End()
	span.SetAttributes(
		attribute.String("appointment.id", appointmentID.String()),
		attribute.String("actor.role", actor.Role()),
	)

	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	before := appointmentSnapshot(appointment)
	now := u.now()
	flipped, err := appointment.ApplyIdentityValidation(actor.UserID, now)
	if err != nil {
		u.effects.observe("validate_identity", err)
		return nil, err
	}

	var notes string
	if req != nil {
		notes = strings.TrimSpace(req.Notes)
	}
	record := &entity.IdentityValidation{
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		ValidatedBy:     actor.UserID,
		ValidatorRole:   actor.Role(),
		ValidationNotes: notes,
		IsAuthoritative: flipped,
		ValidatedAt:     now,
	}

	err = withRetry(ctx, u.log, "store identity validation", func(ctx context.Context) error {
		record.ID = 0
		record.IsAuthoritative = flipped
		return u.appointmentRepo.ApplyIdentityValidation(ctx, appointment, record)
	})
	u.effects.observe("validate_identity", err)
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"validated_by":   actor.UserID,
		"role":           record.ValidatorRole,
		"authoritative":  record.IsAuthoritative,
	}).Info("Patient identity validated")

	u.effects.metrics.IdentityValidations.WithLabelValues(record.ValidatorRole).Inc()
	if record.IsAuthoritative {
		u.effects.publish(ctx, entity.EventIdentityValidated, appointment, actor.UserID, now)
	}
	u.effects.audit(ctx, actor.UserID, entity.AuditActionIdentityValidate, appointment, before)

	return converter.IdentityValidationToResponse(record), nil
}

// GetIdentityEvidence reports which identity documents the patient has on
// file along with the validation history. Missing documents do not block
// validation.
func (u *identityUsecase) GetIdentityEvidence(ctx context.Context, appointmentID uuid.UUID, actor Actor) (*dto.IdentityEvidenceResponse, error) {
	appointment, err := findAppointment(ctx, u.log, u.appointmentRepo, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeStaff(ctx, u.clinicRepo, appointment, actor); err != nil {
		return nil, err
	}

	documents, err := u.documentRepo.FindByPatientID(ctx, appointment.PatientID)
	if err != nil {
		u.log.Warnf("Failed to find documents for patient %s: %+v", appointment.PatientID, err)
		return nil, entity.PersistenceFailure(err)
	}

	history, err := u.validationRepo.FindByAppointmentID(ctx, appointment.ID)
	if err != nil {
		u.log.Warnf("Failed to find identity validations: %+v", err)
		return nil, entity.PersistenceFailure(err)
	}

	evidence := &entity.IdentityEvidence{
		AppointmentID:     appointment.ID,
		PatientID:         appointment.PatientID,
		IdentityValidated: appointment.IdentityValidated,
		History:           history,
	}
	for _, doc := range documents {
		switch doc.Kind {
		case entity.DocumentKindProfilePhoto:
			evidence.HasProfilePhoto = true
		case entity.DocumentKindIDDocument:
			evidence.HasIDDocument = true
		}
	}

	return converter.IdentityEvidenceToResponse(evidence), nil
}
