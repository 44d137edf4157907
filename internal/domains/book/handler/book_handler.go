package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/book/model"
	"bookexchange-backend/internal/domains/book/service"
	"bookexchange-backend/internal/shared/response"
	"bookexchange-backend/internal/shared/utils"
)

const maxCoverSize = 5 << 20 // 5MB

type BookHandler struct {
	bookService service.BookService
}

func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBook - POST /api/v1/books
func (h *BookHandler) CreateBook(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.bookService.CreateBook(c.Request.Context(), userID, req)
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetBook - GET /api/v1/books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	bookID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return
	}

	result, err := h.bookService.GetBook(c.Request.Context(), bookID)
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListAvailable - GET /api/v1/books
func (h *BookHandler) ListAvailable(c *gin.Context) {
	page, size := utils.ParsePagination(c)

	results, total, err := h.bookService.ListAvailable(c.Request.Context(), page, size)
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{
		Page:  page,
		Limit: size,
		Total: total,
	})
}

// ListMine - GET /api/v1/books/mine?status=available
func (h *BookHandler) ListMine(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	results, err := h.bookService.ListByOwner(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// UpdateBook - PUT /api/v1/books/:id
func (h *BookHandler) UpdateBook(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	bookID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.bookService.UpdateBook(c.Request.Context(), userID, bookID, req)
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// WithdrawBook - DELETE /api/v1/books/:id
func (h *BookHandler) WithdrawBook(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	bookID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return
	}

	if err := h.bookService.WithdrawBook(c.Request.Context(), userID, bookID); err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"withdrawn": true})
}

// UploadCover - POST /api/v1/books/:id/cover
func (h *BookHandler) UploadCover(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	bookID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		response.BadRequest(c, "Missing cover file")
		return
	}
	if fileHeader.Size > maxCoverSize {
		response.BadRequest(c, "Cover file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalServerError(c, "Failed to read cover file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalServerError(c, "Failed to read cover file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := h.bookService.UploadCover(c.Request.Context(), userID, bookID, data, contentType)
	if err != nil {
		handleBookError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// handleBookError map domain errors sang HTTP status
func handleBookError(c *gin.Context, err error) {
	var bookErr *model.BookError
	if errors.As(err, &bookErr) {
		switch bookErr.Code {
		case model.ErrCodeBookNotFound:
			response.ErrorResponse(c, http.StatusNotFound, bookErr.Code, bookErr.Message)
		case model.ErrCodeNotOwner:
			response.ErrorResponse(c, http.StatusForbidden, bookErr.Code, bookErr.Message)
		case model.ErrCodeBookNotAvailable, model.ErrCodeVersionMismatch:
			response.ErrorResponse(c, http.StatusConflict, bookErr.Code, bookErr.Message)
		case model.ErrCodeInvalidBook:
			response.ErrorResponse(c, http.StatusUnprocessableEntity, bookErr.Code, bookErr.Message)
		default:
			response.InternalServerError(c, "Internal server error")
		}
		return
	}

	if errors.Is(err, model.ErrBookNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if errors.Is(err, model.ErrVersionMismatch) {
		response.Conflict(c, err.Error())
		return
	}

	response.InternalServerError(c, "Internal server error")
}
