package handler

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	bookmodel "bookexchange-backend/internal/domains/book/model"
	"bookexchange-backend/internal/domains/exchange/model"
)

// Repos trả bare sentinel (không wrap trong domain error) cho not-found
// và version mismatch; mapping phải ra client error, không phải 500.
func TestHandleExchangeError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"book not found sentinel", bookmodel.ErrBookNotFound, 404},
		{"wrapped book not found sentinel", fmt.Errorf("failed to load book: %w", bookmodel.ErrBookNotFound), 404},
		{"offer not found sentinel", model.ErrOfferNotFound, 404},
		{"book version mismatch sentinel", bookmodel.ErrVersionMismatch, 409},
		{"offer version mismatch sentinel", model.ErrVersionMismatch, 409},
		{"offer not found", model.NewExchangeError(model.ErrCodeOfferNotFound, "Offer not found", model.ErrOfferNotFound), 404},
		{"not participant", model.NewExchangeError(model.ErrCodeNotParticipant, "Offer does not involve this user", model.ErrNotParticipant), 403},
		{"invalid offer", model.NewExchangeError(model.ErrCodeInvalidOffer, "Invalid offer request", model.ErrInvalidOffer), 422},
		{"illegal state", model.NewExchangeError(model.ErrCodeIllegalState, "Offer is already accepted", model.ErrIllegalState), 409},
		{"conflict", model.NewExchangeError(model.ErrCodeConflict, "Concurrent settlement detected", model.ErrConflict), 409},
		{"book error not found", bookmodel.NewBookError(bookmodel.ErrCodeBookNotFound, "Book not found", bookmodel.ErrBookNotFound), 404},
		{"book error not owner", bookmodel.NewBookError(bookmodel.ErrCodeNotOwner, "Not the owner", bookmodel.ErrNotOwner), 403},
		{"unknown error", fmt.Errorf("connection refused"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			handleExchangeError(c, tt.err)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
