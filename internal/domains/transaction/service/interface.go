package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/transaction/model"
)

// TransactionService đọc ledger; không có đường ghi nào ngoài settlement engine
type TransactionService interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.TransactionResponse, error)
	ListAll(ctx context.Context, page, size int) ([]model.TransactionResponse, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]model.TransactionResponse, int, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.TransactionResponse, error)
	Search(ctx context.Context, keyword string, page, size int) ([]model.TransactionResponse, int, error)

	// GetStats trả thống kê tổng / theo ngày / theo tháng, cached trong Redis
	GetStats(ctx context.Context) (*model.TransactionStats, error)

	// ExportLedger xuất các transaction trong khoảng thời gian ra file xlsx
	ExportLedger(ctx context.Context, from, to time.Time) ([]byte, error)
}
