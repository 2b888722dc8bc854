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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrDocumentAccessDenied = errors.New("you cannot manage documents of another patient")

// PatientDocumentUsecase records where identity documents are stored. The
// files themselves live in external storage.
type PatientDocumentUsecase interface {
	RegisterDocument(ctx context.Context, patientID uuid.UUID, actor Actor, req *dto.RegisterDocumentRequest) (*dto.PatientDocumentResponse, error)
	ListDocuments(ctx context.Context, patientID uuid.UUID, actor Actor) ([]dto.PatientDocumentResponse, error)
}

type patientDocumentUsecase struct {
	log          *logrus.Logger
	documentRepo repository.PatientDocumentRepository
	userRepo     repository.UserRepository
	auditService service.AuditService
	now          func() time.Time
}

func NewPatientDocumentUsecase(
	log *logrus.Logger,
	documentRepo repository.PatientDocumentRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
) PatientDocumentUsecase {
	return &patientDocumentUsecase{
		log:          log,
		documentRepo: documentRepo,
		userRepo:     userRepo,
		auditService: auditService,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (u *patientDocumentUsecase) RegisterDocument(ctx context.Context, patientID uuid.UUID, actor Actor, req *dto.RegisterDocumentRequest) (*dto.PatientDocumentResponse, error) {
	if err := u.authorize(ctx, patientID, actor); err != nil {
		return nil, err
	}

	doc := &entity.PatientDocument{
		PatientID:   patientID,
		Kind:        entity.DocumentKind(req.Kind),
		StoragePath: req.StoragePath,
		ContentType: req.ContentType,
		UploadedBy:  actor.UserID,
		UploadedAt:  u.now(),
	}
	if err := u.documentRepo.Create(ctx, doc); err != nil {
		u.log.Warnf("Failed to register document for patient %s: %+v", patientID, err)
		return nil, err
	}

	response := converter.PatientDocumentToResponse(doc)
	if err := u.auditService.LogCreate(ctx, &actor.UserID, entity.AuditActionDocumentRegister, "patient_document", doc.ID.String(), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}
	return response, nil
}

func (u *patientDocumentUsecase) ListDocuments(ctx context.Context, patientID uuid.UUID, actor Actor) ([]dto.PatientDocumentResponse, error) {
	if err := u.authorize(ctx, patientID, actor); err != nil {
		return nil, err
	}

	docs, err := u.documentRepo.FindByPatientID(ctx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find documents for patient %s: %+v", patientID, err)
		return nil, err
	}

	responses := make([]dto.PatientDocumentResponse, len(docs))
	for i := range docs {
		responses[i] = *converter.PatientDocumentToResponse(&docs[i])
	}
	return responses, nil
}

// authorize lets patients manage their own documents and any staff member
// manage documents of an existing patient.
func (u *patientDocumentUsecase) authorize(ctx context.Context, patientID uuid.UUID, actor Actor) error {
	if actor.RoleID == entity.RoleIDPatient {
		if actor.UserID != patientID {
			return ErrDocumentAccessDenied
		}
		return nil
	}
	if !actor.IsAdmin() && !entity.IsStaff(actor.RoleID) {
		return ErrDocumentAccessDenied
	}

	patient, err := u.userRepo.FindByID(ctx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return err
	}
	if patient == nil || patient.RoleID != entity.RoleIDPatient {
		return ErrPatientNotFound
	}
	return nil
}
