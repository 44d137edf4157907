package repository

import (
	"context"

	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/user/model"
)

// UserRepository là data access cho user records.
// Settlement engine chỉ dùng GetByID/GetByIDs để resolve DTOs.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]model.User, error)
}
