package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
const (
	ErrCodeUserNotFound    = "USR001"
	ErrCodeEmailTaken      = "USR002"
	ErrCodeInvalidPassword = "USR003"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidPassword = errors.New("incorrect email or password")
)

// User là identity collaborator: engine chỉ đọc user record theo id,
// không bao giờ tạo hay mutate user trong settlement path.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	PictureURL   *string   `json:"picture_url" db:"picture_url"`
	IsLocked     bool      `json:"is_locked" db:"is_locked"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// =====================================================
// REQUEST / RESPONSE DTOs
// =====================================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	PictureURL *string   `json:"picture_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		PictureURL: u.PictureURL,
		CreatedAt:  u.CreatedAt,
	}
}
