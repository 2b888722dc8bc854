package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type IdentityValidationRepository interface {
	FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) ([]entity.IdentityValidation, error)
}
