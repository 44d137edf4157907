package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	bookmodel "bookexchange-backend/internal/domains/book/model"
	"bookexchange-backend/internal/domains/exchange/model"
	"bookexchange-backend/internal/domains/exchange/service"
	"bookexchange-backend/internal/shared/response"
	"bookexchange-backend/internal/shared/utils"
)

type ExchangeHandler struct {
	exchangeService service.ExchangeService
}

func NewExchangeHandler(exchangeService service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService}
}

// CreateOffer - POST /api/v1/offers
func (h *ExchangeHandler) CreateOffer(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.exchangeService.CreateOffer(c.Request.Context(), userID, req)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetOffer - GET /api/v1/offers/:id
func (h *ExchangeHandler) GetOffer(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	offerID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	result, err := h.exchangeService.GetOffer(c.Request.Context(), userID, offerID)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListMyOffers - GET /api/v1/offers?status=pending
func (h *ExchangeHandler) ListMyOffers(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	results, err := h.exchangeService.ListMyOffers(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// ListOffersByStatus - GET /api/v1/admin/offers?status=pending (admin only)
func (h *ExchangeHandler) ListOffersByStatus(c *gin.Context) {
	page, size := utils.ParsePagination(c)

	results, total, err := h.exchangeService.ListOffersByStatus(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{
		Page:  page,
		Limit: size,
		Total: total,
	})
}

// ListOffersForBook - GET /api/v1/books/:id/offers
func (h *ExchangeHandler) ListOffersForBook(c *gin.Context) {
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

	results, err := h.exchangeService.ListOffersForBook(c.Request.Context(), userID, bookID)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// AcceptOffer - POST /api/v1/books/:id/offers/:offerId/accept
func (h *ExchangeHandler) AcceptOffer(c *gin.Context) {
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

	offerID, err := utils.ParseStringToUUID(c.Param("offerId"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	result, err := h.exchangeService.AcceptOffer(c.Request.Context(), userID, bookID, offerID)
	if err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RejectOffer - POST /api/v1/offers/:id/reject
func (h *ExchangeHandler) RejectOffer(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	offerID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid offer ID")
		return
	}

	if err := h.exchangeService.RejectOffer(c.Request.Context(), userID, offerID); err != nil {
		handleExchangeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rejected": true})
}

// handleExchangeError map domain errors sang HTTP status.
// Book errors cũng đi qua đây vì engine load books trong lúc validate.
func handleExchangeError(c *gin.Context, err error) {
	var exchangeErr *model.ExchangeError
	if errors.As(err, &exchangeErr) {
		switch exchangeErr.Code {
		case model.ErrCodeOfferNotFound:
			response.ErrorResponse(c, http.StatusNotFound, exchangeErr.Code, exchangeErr.Message)
		case model.ErrCodeNotParticipant:
			response.ErrorResponse(c, http.StatusForbidden, exchangeErr.Code, exchangeErr.Message)
		case model.ErrCodeInvalidOffer:
			response.ErrorResponse(c, http.StatusUnprocessableEntity, exchangeErr.Code, exchangeErr.Message)
		case model.ErrCodeIllegalState, model.ErrCodeConflict, model.ErrCodeVersionMismatch:
			response.ErrorResponse(c, http.StatusConflict, exchangeErr.Code, exchangeErr.Message)
		default:
			response.InternalServerError(c, "Internal server error")
		}
		return
	}

	var bookErr *bookmodel.BookError
	if errors.As(err, &bookErr) {
		switch bookErr.Code {
		case bookmodel.ErrCodeBookNotFound:
			response.ErrorResponse(c, http.StatusNotFound, bookErr.Code, bookErr.Message)
		case bookmodel.ErrCodeNotOwner:
			response.ErrorResponse(c, http.StatusForbidden, bookErr.Code, bookErr.Message)
		default:
			response.ErrorResponse(c, http.StatusConflict, bookErr.Code, bookErr.Message)
		}
		return
	}

	// Repos trả bare sentinel cho not-found / version mismatch
	if errors.Is(err, bookmodel.ErrBookNotFound) || errors.Is(err, model.ErrOfferNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if errors.Is(err, bookmodel.ErrVersionMismatch) || errors.Is(err, model.ErrVersionMismatch) {
		response.Conflict(c, err.Error())
		return
	}

	response.InternalServerError(c, "Internal server error")
}
