package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookexchange-backend/internal/domains/transaction/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &postgresTransactionRepository{pool: pool}
}

// detailColumns join users hai lần (owner, borrower) và books để enrich
const detailSelect = `
	SELECT t.id, t.offer_id, t.owner_id, t.borrower_id, t.target_book_id,
	       t.item_type, t.exchanged_book_id, t.amount, t.unit, t.created_at,
	       ow.email, bw.email, b.title
	FROM transactions t
	JOIN users ow ON ow.id = t.owner_id
	JOIN users bw ON bw.id = t.borrower_id
	JOIN books b ON b.id = t.target_book_id`

func scanDetail(row pgx.Row) (*model.TransactionDetail, error) {
	var d model.TransactionDetail
	err := row.Scan(
		&d.ID,
		&d.OfferID,
		&d.OwnerID,
		&d.BorrowerID,
		&d.TargetBookID,
		&d.ItemType,
		&d.ExchangedBookID,
		&d.Amount,
		&d.Unit,
		&d.CreatedAt,
		&d.OwnerEmail,
		&d.BorrowerEmail,
		&d.BookTitle,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDetailRows(rows pgx.Rows) ([]model.TransactionDetail, error) {
	defer rows.Close()

	var details []model.TransactionDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

func (r *postgresTransactionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, offer_id, owner_id, borrower_id, target_book_id,
			item_type, exchanged_book_id, amount, unit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		txn.ID,
		txn.OfferID,
		txn.OwnerID,
		txn.BorrowerID,
		txn.TargetBookID,
		txn.ItemType,
		txn.ExchangedBookID,
		txn.Amount,
		txn.Unit,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *postgresTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error) {
	query := detailSelect + ` WHERE t.id = $1`

	detail, err := scanDetail(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewTransactionError(model.ErrCodeTransactionNotFound, "Transaction not found", model.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return detail, nil
}

func (r *postgresTransactionRepository) ListAll(ctx context.Context, page, size int) ([]model.TransactionDetail, int, error) {
	total, err := r.CountTotal(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := detailSelect + `
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	details, err := scanDetailRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *postgresTransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]model.TransactionDetail, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE owner_id = $1 OR borrower_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions by user: %w", err)
	}

	query := detailSelect + `
		WHERE t.owner_id = $1 OR t.borrower_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions by user: %w", err)
	}

	details, err := scanDetailRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *postgresTransactionRepository) ListByBook(ctx context.Context, bookID uuid.UUID) ([]model.TransactionDetail, error) {
	query := detailSelect + `
		WHERE t.target_book_id = $1
		ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by book: %w", err)
	}

	return scanDetailRows(rows)
}

func (r *postgresTransactionRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.TransactionDetail, error) {
	query := detailSelect + `
		WHERE t.created_at >= $1 AND t.created_at < $2
		ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by date range: %w", err)
	}

	return scanDetailRows(rows)
}

func (r *postgresTransactionRepository) Search(ctx context.Context, keyword string, page, size int) ([]model.TransactionDetail, int, error) {
	pattern := "%" + keyword + "%"

	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN users ow ON ow.id = t.owner_id
		JOIN users bw ON bw.id = t.borrower_id
		JOIN books b ON b.id = t.target_book_id
		WHERE t.id::text ILIKE $1
		   OR ow.email ILIKE $1
		   OR bw.email ILIKE $1
		   OR b.title ILIKE $1`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	query := detailSelect + `
		WHERE t.id::text ILIKE $1
		   OR ow.email ILIKE $1
		   OR bw.email ILIKE $1
		   OR b.title ILIKE $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, pattern, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search transactions: %w", err)
	}

	details, err := scanDetailRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return details, total, nil
}

func (r *postgresTransactionRepository) CountTotal(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, nil
}

func (r *postgresTransactionRepository) CountByDate(ctx context.Context, days int) ([]model.DailyCount, error) {
	query := `
		SELECT TO_CHAR(created_at::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM transactions
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to count by date: %w", err)
	}

	return scanCounts(rows)
}

func (r *postgresTransactionRepository) CountByMonth(ctx context.Context, months int) ([]model.DailyCount, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month, COUNT(*)
		FROM transactions
		WHERE created_at >= DATE_TRUNC('month', NOW()) - ($1 || ' months')::interval
		GROUP BY month
		ORDER BY month
	`

	rows, err := r.pool.Query(ctx, query, months)
	if err != nil {
		return nil, fmt.Errorf("failed to count by month: %w", err)
	}

	return scanCounts(rows)
}

func scanCounts(rows pgx.Rows) ([]model.DailyCount, error) {
	defer rows.Close()

	var counts []model.DailyCount
	for rows.Next() {
		var c model.DailyCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *postgresTransactionRepository) RewriteTimestamp(ctx context.Context, id uuid.UUID, createdAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE transactions SET created_at = $1 WHERE id = $2`, createdAt, id)
	if err != nil {
		return fmt.Errorf("failed to rewrite timestamp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}
	return nil
}
