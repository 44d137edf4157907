package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookexchange-backend/internal/domains/exchange/model"
)

// ExchangeRepository quản lý offers và money items.
// Các method *WithTx chạy trong transaction do settlement engine điều khiển.
type ExchangeRepository interface {
	// Transaction control
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Offers
	CreateOfferWithTx(ctx context.Context, tx pgx.Tx, offer *model.ExchangeOffer) error
	GetOfferByID(ctx context.Context, id uuid.UUID) (*model.ExchangeOffer, error)
	ListOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error)
	ListOffersByUser(ctx context.Context, userID uuid.UUID, status model.OfferStatus) ([]model.ExchangeOffer, error)
	ListOffersByStatus(ctx context.Context, status model.OfferStatus, page, size int) ([]model.ExchangeOffer, int, error)
	ListActiveOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error)
	ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.ExchangeOffer, error)

	// UpdateOfferStatusWithTx là version-checked: trả model.ErrVersionMismatch
	// nếu offer đã bị sửa đồng thời
	UpdateOfferStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OfferStatus, version int) error

	// RejectOtherActiveOffersWithTx reject mọi offer pending khác trên cùng book
	// sau khi một offer được accept; trả về số offer bị reject
	RejectOtherActiveOffersWithTx(ctx context.Context, tx pgx.Tx, bookID, acceptedOfferID uuid.UUID) (int, error)

	// Money items
	CreateMoneyItemWithTx(ctx context.Context, tx pgx.Tx, item *model.MoneyItem) error
	GetMoneyItemByID(ctx context.Context, id uuid.UUID) (*model.MoneyItem, error)
}
