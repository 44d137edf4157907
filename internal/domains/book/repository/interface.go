package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookexchange-backend/internal/domains/book/model"
)

// BookRepository owns book records và availability state.
// Status transitions chạy qua các method ...WithTx để settlement engine
// gom chung vào một transaction; mọi update status đều check version
// (optimistic locking) - 0 rows affected nghĩa là concurrent modification.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status model.BookStatus) ([]model.Book, error)
	ListAvailable(ctx context.Context, page, size int) ([]model.Book, int, error)

	UpdateMetadata(ctx context.Context, book *model.Book) error
	UpdateImagePaths(ctx context.Context, id uuid.UUID, imagePath, thumbnailPath *string) error

	// Status transitions (version-checked)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookStatus, version int) error
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.BookStatus, version int) error

	// TransferWithTx đổi cả owner lẫn status trong một statement,
	// dùng duy nhất bởi settlement engine khi accept offer.
	TransferWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, newOwnerID uuid.UUID, status model.BookStatus, version int) error
}
