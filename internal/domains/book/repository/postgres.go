package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookexchange-backend/internal/domains/book/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresBookRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBookRepository(pool *pgxpool.Pool) BookRepository {
	return &postgresBookRepository{pool: pool}
}

const bookColumns = `
	id, owner_id, title, author, publisher, publish_year, language,
	weight, size, pages, layout, description, image_path, thumbnail_path,
	categories, status, version, created_at, updated_at`

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Title,
		&b.Author,
		&b.Publisher,
		&b.PublishYear,
		&b.Language,
		&b.Weight,
		&b.Size,
		&b.Pages,
		&b.Layout,
		&b.Description,
		&b.ImagePath,
		&b.ThumbnailPath,
		&b.Categories,
		&b.Status,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *postgresBookRepository) Create(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (
			id, owner_id, title, author, publisher, publish_year, language,
			weight, size, pages, layout, description, image_path,
			categories, status, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.ID,
		book.OwnerID,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishYear,
		book.Language,
		book.Weight,
		book.Size,
		book.Pages,
		book.Layout,
		book.Description,
		book.ImagePath,
		book.Categories,
		book.Status,
		book.Version,
	).Scan(&book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

func (r *postgresBookRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	return book, nil
}

func (r *postgresBookRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Book, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Book{}, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get books by ids: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*model.Book, len(ids))
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		result[book.ID] = book
	}

	return result, rows.Err()
}

func (r *postgresBookRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, status model.BookStatus) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books by owner: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}

	return books, rows.Err()
}

func (r *postgresBookRepository) ListAvailable(ctx context.Context, page, size int) ([]model.Book, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM books WHERE status = $1`, model.BookStatusAvailable,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count available books: %w", err)
	}

	query := `SELECT ` + bookColumns + `
		FROM books
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, model.BookStatusAvailable, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list available books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}

	return books, total, rows.Err()
}

func (r *postgresBookRepository) UpdateMetadata(ctx context.Context, book *model.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, publisher = $3, publish_year = $4,
			language = $5, weight = $6, size = $7, pages = $8, layout = $9,
			description = $10, categories = $11, updated_at = NOW()
		WHERE id = $12
	`

	result, err := r.pool.Exec(ctx, query,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishYear,
		book.Language,
		book.Weight,
		book.Size,
		book.Pages,
		book.Layout,
		book.Description,
		book.Categories,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book metadata: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

func (r *postgresBookRepository) UpdateImagePaths(ctx context.Context, id uuid.UUID, imagePath, thumbnailPath *string) error {
	query := `
		UPDATE books
		SET image_path = COALESCE($1, image_path),
			thumbnail_path = COALESCE($2, thumbnail_path),
			updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, imagePath, thumbnailPath, id)
	if err != nil {
		return fmt.Errorf("failed to update image paths: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

func (r *postgresBookRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookStatus, version int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE books
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`, status, id, version)
	if err != nil {
		return fmt.Errorf("failed to update book status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresBookRepository) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.BookStatus, version int) error {
	result, err := tx.Exec(ctx, `
		UPDATE books
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`, status, id, version)
	if err != nil {
		return fmt.Errorf("failed to update book status with tx: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresBookRepository) TransferWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, newOwnerID uuid.UUID, status model.BookStatus, version int) error {
	result, err := tx.Exec(ctx, `
		UPDATE books
		SET owner_id = $1, status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, newOwnerID, status, id, version)
	if err != nil {
		return fmt.Errorf("failed to transfer book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}
