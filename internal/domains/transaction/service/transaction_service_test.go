package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bookexchange-backend/internal/domains/transaction/model"
)

// stubTxnRepo trả về dữ liệu cố định cho từng query
type stubTxnRepo struct {
	details  []model.TransactionDetail
	total    int
	byDate   []model.DailyCount
	byMonth  []model.DailyCount
	searched string
}

func (r *stubTxnRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error {
	return nil
}

func (r *stubTxnRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error) {
	for i := range r.details {
		if r.details[i].ID == id {
			return &r.details[i], nil
		}
	}
	return nil, model.NewTransactionError(model.ErrCodeTransactionNotFound, "Transaction not found", model.ErrTransactionNotFound)
}

func (r *stubTxnRepo) ListAll(ctx context.Context, page, size int) ([]model.TransactionDetail, int, error) {
	return r.details, len(r.details), nil
}

func (r *stubTxnRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]model.TransactionDetail, int, error) {
	var out []model.TransactionDetail
	for i := range r.details {
		if r.details[i].OwnerID == userID || r.details[i].BorrowerID == userID {
			out = append(out, r.details[i])
		}
	}
	return out, len(out), nil
}

func (r *stubTxnRepo) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.TransactionDetail, error) {
	return r.details, nil
}

func (r *stubTxnRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.TransactionDetail, error) {
	return r.details, nil
}

func (r *stubTxnRepo) Search(ctx context.Context, keyword string, page, size int) ([]model.TransactionDetail, int, error) {
	r.searched = keyword
	return r.details, len(r.details), nil
}

func (r *stubTxnRepo) CountTotal(ctx context.Context) (int, error) {
	return r.total, nil
}

func (r *stubTxnRepo) CountByDate(ctx context.Context, days int) ([]model.DailyCount, error) {
	return r.byDate, nil
}

func (r *stubTxnRepo) CountByMonth(ctx context.Context, months int) ([]model.DailyCount, error) {
	return r.byMonth, nil
}

func (r *stubTxnRepo) RewriteTimestamp(ctx context.Context, id uuid.UUID, createdAt time.Time) error {
	return nil
}

func sampleDetail() model.TransactionDetail {
	amount := decimal.NewFromInt(150000)
	unit := "VND"
	return model.TransactionDetail{
		Transaction: model.Transaction{
			ID:           uuid.New(),
			OfferID:      uuid.New(),
			OwnerID:      uuid.New(),
			BorrowerID:   uuid.New(),
			TargetBookID: uuid.New(),
			ItemType:     "money",
			Amount:       &amount,
			Unit:         &unit,
			CreatedAt:    time.Now(),
		},
		OwnerEmail:    "owner@bookexchange.local",
		BorrowerEmail: "borrower@bookexchange.local",
		BookTitle:     "Norwegian Wood",
	}
}

func TestGetStats_WithoutRedis(t *testing.T) {
	repo := &stubTxnRepo{
		total:   42,
		byDate:  []model.DailyCount{{Date: "2026-08-30", Count: 3}},
		byMonth: []model.DailyCount{{Date: "2026-08", Count: 12}},
	}
	svc := NewTransactionService(repo, nil)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, stats.Total)
	require.Len(t, stats.ByDate, 1)
	assert.Equal(t, 3, stats.ByDate[0].Count)
	require.Len(t, stats.ByMonth, 1)
	assert.Equal(t, "2026-08", stats.ByMonth[0].Date)
}

func TestSearch_EmptyKeywordFallsBackToListAll(t *testing.T) {
	repo := &stubTxnRepo{details: []model.TransactionDetail{sampleDetail()}}
	svc := NewTransactionService(repo, nil)

	results, total, err := svc.Search(context.Background(), "", 1, 20)
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	assert.Len(t, results, 1)
	// Search repo không được gọi khi keyword rỗng
	assert.Empty(t, repo.searched)
}

func TestSearch_KeywordPassedThrough(t *testing.T) {
	repo := &stubTxnRepo{details: []model.TransactionDetail{sampleDetail()}}
	svc := NewTransactionService(repo, nil)

	_, _, err := svc.Search(context.Background(), "norwegian", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "norwegian", repo.searched)
}

func TestGetTransaction_MoneyFieldsSerialized(t *testing.T) {
	detail := sampleDetail()
	repo := &stubTxnRepo{details: []model.TransactionDetail{detail}}
	svc := NewTransactionService(repo, nil)

	resp, err := svc.GetTransaction(context.Background(), detail.ID)
	require.NoError(t, err)

	require.NotNil(t, resp.Amount)
	assert.Equal(t, "150000", *resp.Amount)
	require.NotNil(t, resp.Unit)
	assert.Equal(t, "VND", *resp.Unit)
	assert.Equal(t, "Norwegian Wood", resp.BookTitle)
}

func TestExportLedger_ProducesReadableWorkbook(t *testing.T) {
	detail := sampleDetail()
	repo := &stubTxnRepo{details: []model.TransactionDetail{detail}}
	svc := NewTransactionService(repo, nil)

	from := time.Now().Add(-30 * 24 * time.Hour)
	to := time.Now()

	data, err := svc.ExportLedger(context.Background(), from, to)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + 1 transaction

	assert.Equal(t, "Transaction ID", rows[0][0])
	assert.Equal(t, detail.ID.String(), rows[1][0])
	assert.Equal(t, "Norwegian Wood", rows[1][2])
	assert.Equal(t, "150000", rows[1][6])
}

func TestExportLedger_EmptyRangeRefused(t *testing.T) {
	svc := NewTransactionService(&stubTxnRepo{}, nil)

	now := time.Now()
	_, err := svc.ExportLedger(context.Background(), now, now)
	require.Error(t, err)

	var txnErr *model.TransactionError
	require.ErrorAs(t, err, &txnErr)
	assert.Equal(t, model.ErrCodeInvalidQuery, txnErr.Code)
}
