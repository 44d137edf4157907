package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookexchange-backend/internal/domains/exchange/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresExchangeRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresExchangeRepository(pool *pgxpool.Pool) ExchangeRepository {
	return &postgresExchangeRepository{pool: pool}
}

const offerColumns = `
	id, owner_id, borrower_id, target_book_id, item_type,
	book_item_id, money_item_id, status, version, created_at, updated_at`

func scanOffer(row pgx.Row) (*model.ExchangeOffer, error) {
	var o model.ExchangeOffer
	err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.BorrowerID,
		&o.TargetBookID,
		&o.ItemType,
		&o.BookItemID,
		&o.MoneyItemID,
		&o.Status,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOfferRows(rows pgx.Rows) ([]model.ExchangeOffer, error) {
	defer rows.Close()

	var offers []model.ExchangeOffer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}
	return offers, rows.Err()
}

// =====================================================
// TRANSACTION CONTROL
// =====================================================
func (r *postgresExchangeRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *postgresExchangeRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresExchangeRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// OFFERS
// =====================================================
func (r *postgresExchangeRepository) CreateOfferWithTx(ctx context.Context, tx pgx.Tx, offer *model.ExchangeOffer) error {
	query := `
		INSERT INTO exchange_offers (
			id, owner_id, borrower_id, target_book_id, item_type,
			book_item_id, money_item_id, status, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		offer.ID,
		offer.OwnerID,
		offer.BorrowerID,
		offer.TargetBookID,
		offer.ItemType,
		offer.BookItemID,
		offer.MoneyItemID,
		offer.Status,
		offer.Version,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

func (r *postgresExchangeRepository) GetOfferByID(ctx context.Context, id uuid.UUID) (*model.ExchangeOffer, error) {
	query := fmt.Sprintf(`SELECT %s FROM exchange_offers WHERE id = $1`, offerColumns)

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewExchangeError(model.ErrCodeOfferNotFound, "Offer not found", model.ErrOfferNotFound)
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

func (r *postgresExchangeRepository) ListOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exchange_offers
		WHERE target_book_id = $1
		ORDER BY created_at DESC`, offerColumns)

	rows, err := r.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers by book: %w", err)
	}

	return scanOfferRows(rows)
}

func (r *postgresExchangeRepository) ListOffersByUser(ctx context.Context, userID uuid.UUID, status model.OfferStatus) ([]model.ExchangeOffer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exchange_offers
		WHERE (owner_id = $1 OR borrower_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`, offerColumns)

	rows, err := r.pool.Query(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list offers by user: %w", err)
	}

	return scanOfferRows(rows)
}

func (r *postgresExchangeRepository) ListOffersByStatus(ctx context.Context, status model.OfferStatus, page, size int) ([]model.ExchangeOffer, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM exchange_offers WHERE ($1 = '' OR status = $1)`
	if err := r.pool.QueryRow(ctx, countQuery, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count offers: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM exchange_offers
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, offerColumns)

	rows, err := r.pool.Query(ctx, query, string(status), size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list offers by status: %w", err)
	}

	offers, err := scanOfferRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return offers, total, nil
}

func (r *postgresExchangeRepository) ListActiveOffersByBook(ctx context.Context, bookID uuid.UUID) ([]model.ExchangeOffer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exchange_offers
		WHERE target_book_id = $1 AND status = $2
		ORDER BY created_at ASC`, offerColumns)

	rows, err := r.pool.Query(ctx, query, bookID, model.OfferStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}

	return scanOfferRows(rows)
}

func (r *postgresExchangeRepository) ListExpiredPending(ctx context.Context, before time.Time, limit int) ([]model.ExchangeOffer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exchange_offers
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`, offerColumns)

	rows, err := r.pool.Query(ctx, query, model.OfferStatusPending, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired offers: %w", err)
	}

	return scanOfferRows(rows)
}

func (r *postgresExchangeRepository) UpdateOfferStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OfferStatus, version int) error {
	query := `
		UPDATE exchange_offers
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	tag, err := tx.Exec(ctx, query, status, id, version)
	if err != nil {
		return fmt.Errorf("failed to update offer status: %w", err)
	}

	// 0 rows = offer đã bị sửa đồng thời hoặc không tồn tại
	if tag.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresExchangeRepository) RejectOtherActiveOffersWithTx(ctx context.Context, tx pgx.Tx, bookID, acceptedOfferID uuid.UUID) (int, error) {
	query := `
		UPDATE exchange_offers
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE target_book_id = $2 AND id <> $3 AND status = $4
	`

	tag, err := tx.Exec(ctx, query, model.OfferStatusRejected, bookID, acceptedOfferID, model.OfferStatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to reject other offers: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// =====================================================
// MONEY ITEMS
// =====================================================
func (r *postgresExchangeRepository) CreateMoneyItemWithTx(ctx context.Context, tx pgx.Tx, item *model.MoneyItem) error {
	query := `
		INSERT INTO money_items (id, amount, unit)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query, item.ID, item.Amount, item.Unit).Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create money item: %w", err)
	}

	return nil
}

func (r *postgresExchangeRepository) GetMoneyItemByID(ctx context.Context, id uuid.UUID) (*model.MoneyItem, error) {
	query := `SELECT id, amount, unit, created_at FROM money_items WHERE id = $1`

	var m model.MoneyItem
	err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Amount, &m.Unit, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewExchangeError(model.ErrCodeOfferNotFound, "Money item not found", model.ErrOfferNotFound)
		}
		return nil, fmt.Errorf("failed to get money item: %w", err)
	}

	return &m, nil
}
