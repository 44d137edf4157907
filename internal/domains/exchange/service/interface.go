package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/exchange/model"
)

// ExchangeService là engine xử lý offer lifecycle và settlement.
// AcceptOffer là điểm vào duy nhất chuyển quyền sở hữu sách.
type ExchangeService interface {
	CreateOffer(ctx context.Context, borrowerID uuid.UUID, req model.CreateOfferRequest) (*model.OfferResponse, error)
	GetOffer(ctx context.Context, userID, offerID uuid.UUID) (*model.OfferResponse, error)
	ListOffersForBook(ctx context.Context, userID, bookID uuid.UUID) ([]model.OfferResponse, error)
	ListMyOffers(ctx context.Context, userID uuid.UUID, status string) ([]model.OfferResponse, error)

	// ListOffersByStatus liệt kê offers toàn hệ thống theo status (admin/dashboard)
	ListOffersByStatus(ctx context.Context, status string, page, size int) ([]model.OfferResponse, int, error)

	// AcceptOffer settle một offer: chuyển ownership, ghi transaction,
	// reject các offer pending khác trên cùng book. Atomic - hoặc tất cả
	// hoặc không gì cả. targetBookID phải khớp với offer.
	AcceptOffer(ctx context.Context, ownerID, targetBookID, offerID uuid.UUID) (*model.SettlementResponse, error)

	// RejectOffer từ chối một offer pending (owner) hoặc rút lại offer
	// của chính mình (borrower); trả book về available
	// nếu không còn offer pending nào khác trên nó
	RejectOffer(ctx context.Context, userID, offerID uuid.UUID) error

	// ExpireStaleOffers reject các offer pending quá hạn, chạy định kỳ bởi worker
	ExpireStaleOffers(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}
