package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	// CreatePatient inserts the user and its patient profile in one transaction
	CreatePatient(ctx context.Context, user *entity.User, profile *entity.PatientProfile) error
	// CreateStaff inserts a doctor or assistant. profile is only set for doctors.
	CreateStaff(ctx context.Context, user *entity.User, profile *entity.DoctorProfile) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
