package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type ClinicRepository interface {
	Create(ctx context.Context, clinic *entity.Clinic) error
	FindAll(ctx context.Context, limit, offset int) ([]entity.Clinic, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error)
	Update(ctx context.Context, clinic *entity.Clinic) error
	AddAssistant(ctx context.Context, assignment *entity.ClinicAssistant) error
	FindAssistants(ctx context.Context, clinicID uuid.UUID) ([]entity.ClinicAssistant, error)
	IsAssistant(ctx context.Context, clinicID, userID uuid.UUID) (bool, error)
}
