package repository

import (
	"context"
	"errors"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clinicRepository struct {
	db *gorm.DB
}

func NewClinicRepository(db *gorm.DB) domainRepo.ClinicRepository {
	return &clinicRepository{db: db}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *entity.Clinic) error {
	return r.db.WithContext(ctx).Create(clinic).Error
}

func (r *clinicRepository) FindAll(ctx context.Context, limit, offset int) ([]entity.Clinic, int64, error) {
	var clinics []entity.Clinic
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Clinic{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("created_at DESC").Find(&clinics).Error; err != nil {
		return nil, 0, err
	}

	return clinics, total, nil
}

func (r *clinicRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *entity.Clinic) error {
	return r.db.WithContext(ctx).Save(clinic).Error
}

func (r *clinicRepository) AddAssistant(ctx context.Context, assignment *entity.ClinicAssistant) error {
	return r.db.WithContext(ctx).Omit("Assistant").Create(assignment).Error
}

func (r *clinicRepository) FindAssistants(ctx context.Context, clinicID uuid.UUID) ([]entity.ClinicAssistant, error) {
	var assistants []entity.ClinicAssistant
	err := r.db.WithContext(ctx).Preload("Assistant").Where("clinic_id = ?", clinicID).Find(&assistants).Error
	if err != nil {
		return nil, err
	}
	return assistants, nil
}

func (r *clinicRepository) IsAssistant(ctx context.Context, clinicID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ClinicAssistant{}).
		Where("clinic_id = ? AND assistant_id = ?", clinicID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
