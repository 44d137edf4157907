package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookexchange-backend/internal/domains/transaction/model"
)

// TransactionRepository là append-only ledger: chỉ insert, không update/delete.
// RewriteTimestamp là ngoại lệ duy nhất, dành riêng cho seeder.
type TransactionRepository interface {
	// CreateWithTx chạy trong transaction của settlement engine
	CreateWithTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error)
	ListAll(ctx context.Context, page, size int) ([]model.TransactionDetail, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]model.TransactionDetail, int, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.TransactionDetail, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.TransactionDetail, error)

	// Search khớp keyword trên id, owner email, borrower email, book title
	Search(ctx context.Context, keyword string, page, size int) ([]model.TransactionDetail, int, error)

	CountTotal(ctx context.Context) (int, error)
	CountByDate(ctx context.Context, days int) ([]model.DailyCount, error)
	CountByMonth(ctx context.Context, months int) ([]model.DailyCount, error)

	// RewriteTimestamp chỉ dùng bởi seeder để tạo dữ liệu demo trải theo thời gian
	RewriteTimestamp(ctx context.Context, id uuid.UUID, createdAt time.Time) error
}
