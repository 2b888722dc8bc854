package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type identityValidationRepository struct {
	db *gorm.DB
}

func NewIdentityValidationRepository(db *gorm.DB) domainRepo.IdentityValidationRepository {
	return &identityValidationRepository{db: db}
}

func (r *identityValidationRepository) FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) ([]entity.IdentityValidation, error) {
	var history []entity.IdentityValidation
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("validated_at ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}
