package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type PatientDocumentRepository interface {
	Create(ctx context.Context, doc *entity.PatientDocument) error
	FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.PatientDocument, error)
}
