package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientDocumentRepository struct {
	db *gorm.DB
}

func NewPatientDocumentRepository(db *gorm.DB) domainRepo.PatientDocumentRepository {
	return &patientDocumentRepository{db: db}
}

func (r *patientDocumentRepository) Create(ctx context.Context, doc *entity.PatientDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *patientDocumentRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID) ([]entity.PatientDocument, error) {
	var docs []entity.PatientDocument
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("uploaded_at DESC").Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
