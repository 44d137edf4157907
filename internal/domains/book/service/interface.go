package service

import (
	"context"

	"github.com/google/uuid"

	"bookexchange-backend/internal/domains/book/model"
)

type BookService interface {
	CreateBook(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest) (*model.BookResponse, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.BookResponse, error)
	ListAvailable(ctx context.Context, page, size int) ([]model.BookResponse, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]model.BookResponse, error)
	UpdateBook(ctx context.Context, userID, bookID uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error)

	// WithdrawBook rút book khỏi sàn (owner only, chỉ khi available).
	// Book đang bị lock bởi một active offer thì không rút được.
	WithdrawBook(ctx context.Context, userID, bookID uuid.UUID) error

	// UploadCover lưu ảnh gốc lên object storage, set image_path
	// và enqueue resize job cho worker.
	UploadCover(ctx context.Context, userID, bookID uuid.UUID, data []byte, contentType string) (*model.BookResponse, error)
}
