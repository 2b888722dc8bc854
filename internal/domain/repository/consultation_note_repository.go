package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type ConsultationNoteRepository interface {
	Upsert(ctx context.Context, note *entity.ConsultationNote) error
	FindByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*entity.ConsultationNote, error)
}
