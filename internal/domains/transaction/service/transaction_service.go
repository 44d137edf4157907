package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"

	"bookexchange-backend/internal/domains/transaction/model"
	"bookexchange-backend/internal/domains/transaction/repository"
	"bookexchange-backend/pkg/logger"
)

const (
	statsCacheKey = "transactions:stats"
	statsCacheTTL = 5 * time.Minute

	statsDays   = 30
	statsMonths = 12
)

type transactionService struct {
	txnRepo repository.TransactionRepository
	redis   *redis.Client // nil khi chạy không có Redis (tests)
}

func NewTransactionService(txnRepo repository.TransactionRepository, redisClient *redis.Client) TransactionService {
	return &transactionService{
		txnRepo: txnRepo,
		redis:   redisClient,
	}
}

func (s *transactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.TransactionResponse, error) {
	detail, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := model.ToTransactionResponse(detail)
	return &resp, nil
}

func (s *transactionService) ListAll(ctx context.Context, page, size int) ([]model.TransactionResponse, int, error) {
	details, total, err := s.txnRepo.ListAll(ctx, page, size)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(details), total, nil
}

func (s *transactionService) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]model.TransactionResponse, int, error) {
	details, total, err := s.txnRepo.ListByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(details), total, nil
}

func (s *transactionService) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.TransactionResponse, error) {
	details, err := s.txnRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return toResponses(details), nil
}

func (s *transactionService) Search(ctx context.Context, keyword string, page, size int) ([]model.TransactionResponse, int, error) {
	if keyword == "" {
		return s.ListAll(ctx, page, size)
	}

	details, total, err := s.txnRepo.Search(ctx, keyword, page, size)
	if err != nil {
		return nil, 0, err
	}
	return toResponses(details), total, nil
}

// GetStats: cache-aside với TTL ngắn; ledger append-only nên stale
// vài phút là chấp nhận được
func (s *transactionService) GetStats(ctx context.Context) (*model.TransactionStats, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, statsCacheKey).Bytes()
		if err == nil {
			var stats model.TransactionStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	total, err := s.txnRepo.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	byDate, err := s.txnRepo.CountByDate(ctx, statsDays)
	if err != nil {
		return nil, err
	}
	byMonth, err := s.txnRepo.CountByMonth(ctx, statsMonths)
	if err != nil {
		return nil, err
	}

	stats := &model.TransactionStats{
		Total:   total,
		ByDate:  byDate,
		ByMonth: byMonth,
	}

	if s.redis != nil {
		if b, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, statsCacheKey, b, statsCacheTTL).Err(); err != nil {
				logger.Error("Failed to cache transaction stats", err)
			}
		}
	}

	return stats, nil
}

var ledgerHeaders = []string{
	"Transaction ID", "Date", "Book Title", "Owner Email", "Borrower Email",
	"Item Type", "Amount", "Unit",
}

func (s *transactionService) ExportLedger(ctx context.Context, from, to time.Time) ([]byte, error) {
	if !to.After(from) {
		return nil, model.NewTransactionError(model.ErrCodeInvalidQuery, "Export range is empty", model.ErrInvalidQuery)
	}

	details, err := s.txnRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, h := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range details {
		d := &details[i]
		amount := ""
		unit := ""
		if d.Amount != nil {
			amount = d.Amount.String()
		}
		if d.Unit != nil {
			unit = *d.Unit
		}

		values := []interface{}{
			d.ID.String(),
			d.CreatedAt.Format("2006-01-02 15:04:05"),
			d.BookTitle,
			d.OwnerEmail,
			d.BorrowerEmail,
			d.ItemType,
			amount,
			unit,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ledger export: %w", err)
	}

	return buf.Bytes(), nil
}

func toResponses(details []model.TransactionDetail) []model.TransactionResponse {
	responses := make([]model.TransactionResponse, 0, len(details))
	for i := range details {
		responses = append(responses, model.ToTransactionResponse(&details[i]))
	}
	return responses
}
