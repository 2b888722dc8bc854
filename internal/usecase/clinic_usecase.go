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
	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorRequired           = errors.New("doctor_id is required when an admin creates a clinic")
	ErrDoctorNotFound           = errors.New("doctor not found")
	ErrInvalidTimezone          = errors.New("unknown time zone")
	ErrNegativeFee              = errors.New("consultation_fee cannot be negative")
	ErrInvalidTimeRange         = errors.New("start_time must be before end_time")
	ErrInvalidTimeFormat        = errors.New("invalid time format, use HH:MM")
	ErrInvalidWeekday           = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")
	ErrAvailabilityNotFound     = entity.NotFound("availability rule not found")
	ErrAssistantNotFound        = errors.New("assistant not found")
	ErrAssistantAlreadyAssigned = errors.New("assistant is already assigned to this clinic")
)

// ClinicUsecase administers clinics, their weekly availability rules and
// the assistants working at them.
type ClinicUsecase interface {
	CreateClinic(ctx context.Context, actor Actor, req *dto.CreateClinicRequest) (*dto.ClinicResponse, error)
	ListClinics(ctx context.Context, page, limit int) (*dto.ClinicListResponse, error)
	GetClinic(ctx context.Context, clinicID uuid.UUID) (*dto.ClinicResponse, error)
	UpdateClinic(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.UpdateClinicRequest) (*dto.ClinicResponse, error)

	CreateAvailability(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	ListAvailability(ctx context.Context, clinicID uuid.UUID) (*dto.AvailabilityListResponse, error)
	UpdateAvailability(ctx context.Context, clinicID uuid.UUID, ruleID int, actor Actor, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	DeleteAvailability(ctx context.Context, clinicID uuid.UUID, ruleID int, actor Actor) error

	AssignAssistant(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.AssignAssistantRequest) (*dto.ClinicAssistantResponse, error)
	ListAssistants(ctx context.Context, clinicID uuid.UUID, actor Actor) ([]dto.ClinicAssistantResponse, error)
}

type clinicUsecase struct {
	log              *logrus.Logger
	clinicRepo       repository.ClinicRepository
	availabilityRepo repository.AvailabilityRepository
	userRepo         repository.UserRepository
	auditService     service.AuditService
}

func NewClinicUsecase(
	log *logrus.Logger,
	clinicRepo repository.ClinicRepository,
	availabilityRepo repository.AvailabilityRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
) ClinicUsecase {
	return &clinicUsecase{
		log:              log,
		clinicRepo:       clinicRepo,
		availabilityRepo: availabilityRepo,
		userRepo:         userRepo,
		auditService:     auditService,
	}
}

func (u *clinicUsecase) CreateClinic(ctx context.Context, actor Actor, req *dto.CreateClinicRequest) (*dto.ClinicResponse, error) {
	if !actor.IsAdmin() && actor.RoleID != entity.RoleIDDoctor {
		return nil, ErrClinicAccessDenied
	}

	doctorID := actor.UserID
	if actor.IsAdmin() {
		if req.DoctorID == nil {
			return nil, ErrDoctorRequired
		}
		doctorID = *req.DoctorID
	}
	if err := u.requireUserWithRole(ctx, doctorID, entity.RoleIDDoctor, ErrDoctorNotFound); err != nil {
		return nil, err
	}

	if err := validateTimezone(req.Timezone); err != nil {
		return nil, err
	}
	if req.ConsultationFee.IsNegative() {
		return nil, ErrNegativeFee
	}

	clinic := &entity.Clinic{
		DoctorID:        doctorID,
		Name:            strings.TrimSpace(req.Name),
		Address:         req.Address,
		Phone:           req.Phone,
		Timezone:        req.Timezone,
		ConsultationFee: req.ConsultationFee,
		IsActive:        true,
	}
	if err := u.clinicRepo.Create(ctx, clinic); err != nil {
		u.log.Warnf("Failed to create clinic: %+v", err)
		return nil, err
	}

	response := converter.ClinicToResponse(clinic)
	if err := u.auditService.LogCreate(ctx, &actor.UserID, entity.AuditActionClinicCreate, "clinic", clinic.ID.String(), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return response, nil
}

func (u *clinicUsecase) ListClinics(ctx context.Context, page, limit int) (*dto.ClinicListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	clinics, total, err := u.clinicRepo.FindAll(ctx, limit, (page-1)*limit)
	if err != nil {
		u.log.Warnf("Failed to find clinics: %+v", err)
		return nil, err
	}

	return &dto.ClinicListResponse{
		Clinics: converter.ClinicsToResponses(clinics),
		Total:   total,
	}, nil
}

func (u *clinicUsecase) GetClinic(ctx context.Context, clinicID uuid.UUID) (*dto.ClinicResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	return converter.ClinicToResponse(clinic), nil
}

func (u *clinicUsecase) UpdateClinic(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.UpdateClinicRequest) (*dto.ClinicResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, false); err != nil {
		return nil, err
	}
	oldValue := converter.ClinicToResponse(clinic)

	if req.Name != "" {
		clinic.Name = strings.TrimSpace(req.Name)
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Phone != nil {
		clinic.Phone = *req.Phone
	}
	if req.Timezone != nil {
		if err := validateTimezone(*req.Timezone); err != nil {
			return nil, err
		}
		clinic.Timezone = *req.Timezone
	}
	if req.ConsultationFee != nil {
		if req.ConsultationFee.IsNegative() {
			return nil, ErrNegativeFee
		}
		clinic.ConsultationFee = *req.ConsultationFee
	}
	if req.IsActive != nil {
		clinic.IsActive = *req.IsActive
	}

	if err := u.clinicRepo.Update(ctx, clinic); err != nil {
		u.log.Warnf("Failed to update clinic %s: %+v", clinic.ID, err)
		return nil, err
	}

	response := converter.ClinicToResponse(clinic)
	if err := u.auditService.LogUpdate(ctx, &actor.UserID, entity.AuditActionClinicUpdate, "clinic", clinic.ID.String(), oldValue, response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return response, nil
}

func (u *clinicUsecase) CreateAvailability(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, false); err != nil {
		return nil, err
	}

	if req.Weekday == nil {
		return nil, ErrInvalidWeekday
	}
	day, err := weekday.Parse(*req.Weekday)
	if err != nil {
		return nil, ErrInvalidWeekday
	}
	if err := validateClockRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	rule := &entity.AvailabilitySlot{
		ClinicID:  clinic.ID,
		Weekday:   day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  true,
	}
	if err := u.availabilityRepo.Create(ctx, rule); err != nil {
		u.log.Warnf("Failed to create availability rule: %+v", err)
		return nil, err
	}

	response := converter.AvailabilityToResponse(rule)
	if err := u.auditService.LogCreate(ctx, &actor.UserID, entity.AuditActionAvailabilityCreate, "availability_slot", clinic.ID.String(), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return response, nil
}

func (u *clinicUsecase) ListAvailability(ctx context.Context, clinicID uuid.UUID) (*dto.AvailabilityListResponse, error) {
	if _, err := findClinic(ctx, u.log, u.clinicRepo, clinicID); err != nil {
		return nil, err
	}

	rules, err := u.availabilityRepo.FindByClinic(ctx, clinicID)
	if err != nil {
		u.log.Warnf("Failed to find availability rules: %+v", err)
		return nil, err
	}

	return &dto.AvailabilityListResponse{
		Rules: converter.AvailabilitiesToResponses(rules),
		Total: len(rules),
	}, nil
}

func (u *clinicUsecase) UpdateAvailability(ctx context.Context, clinicID uuid.UUID, ruleID int, actor Actor, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	clinic, rule, err := u.findRule(ctx, clinicID, ruleID, actor)
	if err != nil {
		return nil, err
	}
	oldValue := converter.AvailabilityToResponse(rule)

	if req.Weekday != nil {
		day, err := weekday.Parse(*req.Weekday)
		if err != nil {
			return nil, ErrInvalidWeekday
		}
		rule.Weekday = day
	}
	if req.StartTime != "" {
		rule.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		rule.EndTime = req.EndTime
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := validateClockRange(rule.StartTime, rule.EndTime); err != nil {
		return nil, err
	}

	if err := u.availabilityRepo.Update(ctx, rule); err != nil {
		u.log.Warnf("Failed to update availability rule %d: %+v", rule.ID, err)
		return nil, err
	}

	response := converter.AvailabilityToResponse(rule)
	if err := u.auditService.LogUpdate(ctx, &actor.UserID, entity.AuditActionAvailabilityUpdate, "availability_slot", clinic.ID.String(), oldValue, response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return response, nil
}

func (u *clinicUsecase) DeleteAvailability(ctx context.Context, clinicID uuid.UUID, ruleID int, actor Actor) error {
	clinic, rule, err := u.findRule(ctx, clinicID, ruleID, actor)
	if err != nil {
		return err
	}

	rows, err := u.availabilityRepo.Delete(ctx, rule.ID)
	if err != nil {
		u.log.Warnf("Failed to delete availability rule %d: %+v", rule.ID, err)
		return err
	}
	if rows == 0 {
		return ErrAvailabilityNotFound
	}

	if err := u.auditService.LogDelete(ctx, &actor.UserID, entity.AuditActionAvailabilityDelete, "availability_slot", clinic.ID.String(), converter.AvailabilityToResponse(rule)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return nil
}

func (u *clinicUsecase) AssignAssistant(ctx context.Context, clinicID uuid.UUID, actor Actor, req *dto.AssignAssistantRequest) (*dto.ClinicAssistantResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, false); err != nil {
		return nil, err
	}
	if err := u.requireUserWithRole(ctx, req.AssistantID, entity.RoleIDAssistant, ErrAssistantNotFound); err != nil {
		return nil, err
	}

	assignment := &entity.ClinicAssistant{
		ClinicID:    clinic.ID,
		AssistantID: req.AssistantID,
	}
	if err := u.clinicRepo.AddAssistant(ctx, assignment); err != nil {
		if isDuplicateKeyError(err, "clinic_assistants_pkey") {
			return nil, ErrAssistantAlreadyAssigned
		}
		u.log.Warnf("Failed to assign assistant: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, &actor.UserID, entity.AuditActionAssistantAssign, "clinic_assistant", clinic.ID.String(), map[string]interface{}{
		"assistant_id": req.AssistantID,
	}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return &dto.ClinicAssistantResponse{
		ClinicID:    assignment.ClinicID,
		AssistantID: assignment.AssistantID,
		CreatedAt:   assignment.CreatedAt,
	}, nil
}

func (u *clinicUsecase) ListAssistants(ctx context.Context, clinicID uuid.UUID, actor Actor) ([]dto.ClinicAssistantResponse, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, true); err != nil {
		return nil, err
	}

	assignments, err := u.clinicRepo.FindAssistants(ctx, clinic.ID)
	if err != nil {
		u.log.Warnf("Failed to find assistants: %+v", err)
		return nil, err
	}
	return converter.ClinicAssistantsToResponses(assignments), nil
}

func (u *clinicUsecase) findRule(ctx context.Context, clinicID uuid.UUID, ruleID int, actor Actor) (*entity.Clinic, *entity.AvailabilitySlot, error) {
	clinic, err := findClinic(ctx, u.log, u.clinicRepo, clinicID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeClinic(ctx, u.clinicRepo, clinic, actor, false); err != nil {
		return nil, nil, err
	}

	rule, err := u.availabilityRepo.FindByID(ctx, ruleID)
	if err != nil {
		u.log.Warnf("Failed to find availability rule %d: %+v", ruleID, err)
		return nil, nil, err
	}
	if rule == nil || rule.ClinicID != clinic.ID {
		return nil, nil, ErrAvailabilityNotFound
	}
	return clinic, rule, nil
}

func (u *clinicUsecase) requireUserWithRole(ctx context.Context, userID uuid.UUID, roleID int, notFound error) error {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", userID, err)
		return err
	}
	if user == nil || user.RoleID != roleID || !user.Active() {
		return notFound
	}
	return nil
}

func validateTimezone(name string) error {
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ErrInvalidTimezone
	}
	return nil
}

func validateClockRange(startTime, endTime string) error {
	start, err := time.Parse(entity.ClockLayout, startTime)
	if err != nil {
		return ErrInvalidTimeFormat
	}
	end, err := time.Parse(entity.ClockLayout, endTime)
	if err != nil {
		return ErrInvalidTimeFormat
	}
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	return nil
}
