package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/pkg/weekday"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, slot *entity.AvailabilitySlot) error
	FindByID(ctx context.Context, id int) (*entity.AvailabilitySlot, error)
	FindByClinic(ctx context.Context, clinicID uuid.UUID) ([]entity.AvailabilitySlot, error)
	FindActiveByClinic(ctx context.Context, clinicID uuid.UUID, day weekday.Internal) ([]entity.AvailabilitySlot, error)
	Update(ctx context.Context, slot *entity.AvailabilitySlot) error
	Delete(ctx context.Context, id int) (int64, error)
}
