package repository

import (
	"context"

	"clinic-practice-api/internal/domain/entity"
)

type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*entity.Role, error)
}
