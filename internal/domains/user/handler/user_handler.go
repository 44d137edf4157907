package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/user/model"
	"bookexchange-backend/internal/domains/user/service"
	"bookexchange-backend/internal/shared/response"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register - POST /api/v1/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			response.ErrorResponse(c, http.StatusConflict, model.ErrCodeEmailTaken, err.Error())
			return
		}
		response.UnprocessableEntity(c, err.Error())
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Login - POST /api/v1/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPassword) {
			response.ErrorResponse(c, http.StatusUnauthorized, model.ErrCodeInvalidPassword, err.Error())
			return
		}
		response.UnprocessableEntity(c, err.Error())
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetProfile - GET /api/v1/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	result, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalServerError(c, "Failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, result)
}
