package repository

import (
	"context"
	"errors"

	"clinic-practice-api/internal/domain/entity"
	domainRepo "clinic-practice-api/internal/domain/repository"
	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) domainRepo.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Create(ctx context.Context, slot *entity.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *availabilityRepository) FindByID(ctx context.Context, id int) (*entity.AvailabilitySlot, error) {
	var slot entity.AvailabilitySlot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *availabilityRepository) FindByClinic(ctx context.Context, clinicID uuid.UUID) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("weekday ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) FindActiveByClinic(ctx context.Context, clinicID uuid.UUID, day weekday.Internal) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("clinic_id = ? AND weekday = ? AND is_active = ?", clinicID, int(day), true).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) Update(ctx context.Context, slot *entity.AvailabilitySlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *availabilityRepository) Delete(ctx context.Context, id int) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.AvailabilitySlot{})
	return result.RowsAffected, result.Error
}
