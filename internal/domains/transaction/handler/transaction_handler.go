package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/transaction/model"
	"bookexchange-backend/internal/domains/transaction/service"
	"bookexchange-backend/internal/shared/response"
	"bookexchange-backend/internal/shared/utils"
)

const exportDateLayout = "2006-01-02"

type TransactionHandler struct {
	txnService service.TransactionService
}

func NewTransactionHandler(txnService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txnService: txnService}
}

// GetTransaction - GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid transaction ID")
		return
	}

	result, err := h.txnService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListMine - GET /api/v1/transactions?keyword=
func (h *TransactionHandler) ListMine(c *gin.Context) {
	userID, ok := c.MustGet("userID").(uuid.UUID)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	page, size := utils.ParsePagination(c)

	results, total, err := h.txnService.ListByUser(c.Request.Context(), userID, page, size)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{
		Page:  page,
		Limit: size,
		Total: total,
	})
}

// ListAll - GET /api/v1/admin/transactions?keyword= (admin only)
func (h *TransactionHandler) ListAll(c *gin.Context) {
	page, size := utils.ParsePagination(c)

	results, total, err := h.txnService.Search(c.Request.Context(), c.Query("keyword"), page, size)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, results, &response.Meta{
		Page:  page,
		Limit: size,
		Total: total,
	})
}

// ListByBook - GET /api/v1/books/:id/transactions
func (h *TransactionHandler) ListByBook(c *gin.Context) {
	bookID, err := utils.ParseStringToUUID(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid book ID")
		return
	}

	results, err := h.txnService.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, results)
}

// GetStats - GET /api/v1/admin/transactions/stats (admin only)
func (h *TransactionHandler) GetStats(c *gin.Context) {
	stats, err := h.txnService.GetStats(c.Request.Context())
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ExportLedger - GET /api/v1/admin/transactions/export?from=2026-01-01&to=2026-02-01
func (h *TransactionHandler) ExportLedger(c *gin.Context) {
	from, err := time.Parse(exportDateLayout, c.Query("from"))
	if err != nil {
		response.BadRequest(c, "Invalid 'from' date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse(exportDateLayout, c.Query("to"))
	if err != nil {
		response.BadRequest(c, "Invalid 'to' date, expected YYYY-MM-DD")
		return
	}
	// 'to' là inclusive theo ngày
	to = to.AddDate(0, 0, 1)

	data, err := h.txnService.ExportLedger(c.Request.Context(), from, to)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func handleTransactionError(c *gin.Context, err error) {
	var txnErr *model.TransactionError
	if errors.As(err, &txnErr) {
		switch txnErr.Code {
		case model.ErrCodeTransactionNotFound:
			response.ErrorResponse(c, http.StatusNotFound, txnErr.Code, txnErr.Message)
		case model.ErrCodeInvalidQuery:
			response.ErrorResponse(c, http.StatusBadRequest, txnErr.Code, txnErr.Message)
		default:
			response.InternalServerError(c, "Internal server error")
		}
		return
	}

	if errors.Is(err, model.ErrTransactionNotFound) {
		response.NotFound(c, err.Error())
		return
	}

	response.InternalServerError(c, "Internal server error")
}
