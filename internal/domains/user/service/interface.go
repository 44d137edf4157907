package service

import (
	"context"

	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/user/model"
)

type UserService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
}
