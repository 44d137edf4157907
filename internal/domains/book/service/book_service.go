package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"bookexchange-backend/internal/domains/book/model"
	"bookexchange-backend/internal/domains/book/repository"
	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/keylock"
	"bookexchange-backend/pkg/logger"
)

// CoverStorage là phần của object storage mà book service cần
type CoverStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type bookService struct {
	bookRepo repository.BookRepository
	storage  CoverStorage
	locks    *keylock.KeyLock
	lockWait time.Duration
	asynq    *asynq.Client // nil khi chạy không có Redis (seeder, tests)
}

func NewBookService(
	bookRepo repository.BookRepository,
	storage CoverStorage,
	locks *keylock.KeyLock,
	lockWait time.Duration,
	asynqClient *asynq.Client,
) BookService {
	return &bookService{
		bookRepo: bookRepo,
		storage:  storage,
		locks:    locks,
		lockWait: lockWait,
		asynq:    asynqClient,
	}
}

func (s *bookService) CreateBook(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewBookError(model.ErrCodeInvalidBook, "Invalid book request", err)
	}

	book := &model.Book{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		PublishYear: req.PublishYear,
		Language:    req.Language,
		Weight:      req.Weight,
		Size:        req.Size,
		Pages:       req.Pages,
		Layout:      req.Layout,
		Description: req.Description,
		Categories:  req.Categories,
		Status:      model.BookStatusAvailable,
		Version:     0,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	resp := model.ToBookResponse(book)
	return &resp, nil
}

func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*model.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := model.ToBookResponse(book)
	return &resp, nil
}

func (s *bookService) ListAvailable(ctx context.Context, page, size int) ([]model.BookResponse, int, error) {
	books, total, err := s.bookRepo.ListAvailable(ctx, page, size)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]model.BookResponse, 0, len(books))
	for i := range books {
		responses = append(responses, model.ToBookResponse(&books[i]))
	}

	return responses, total, nil
}

func (s *bookService) ListByOwner(ctx context.Context, ownerID uuid.UUID, status string) ([]model.BookResponse, error) {
	bookStatus := model.BookStatus(status)
	if status != "" && !bookStatus.IsValid() {
		return nil, model.NewBookError(model.ErrCodeInvalidBook, fmt.Sprintf("Invalid book status '%s'", status), model.ErrInvalidBook)
	}

	books, err := s.bookRepo.ListByOwner(ctx, ownerID, bookStatus)
	if err != nil {
		return nil, err
	}

	responses := make([]model.BookResponse, 0, len(books))
	for i := range books {
		responses = append(responses, model.ToBookResponse(&books[i]))
	}

	return responses, nil
}

func (s *bookService) UpdateBook(ctx context.Context, userID, bookID uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewBookError(model.ErrCodeInvalidBook, "Invalid update request", err)
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != userID {
		return nil, model.NewBookError(model.ErrCodeNotOwner, "Book does not belong to user", model.ErrNotOwner)
	}

	applyUpdate(book, req)

	if err := s.bookRepo.UpdateMetadata(ctx, book); err != nil {
		return nil, err
	}

	resp := model.ToBookResponse(book)
	return &resp, nil
}

func (s *bookService) WithdrawBook(ctx context.Context, userID, bookID uuid.UUID) error {
	// Serialize với offer creation / settlement trên cùng book
	release, err := s.locks.Acquire(ctx, bookID.String(), s.lockWait)
	if err != nil {
		if err == keylock.ErrTimeout {
			return model.NewBookError(model.ErrCodeVersionMismatch, "Book is busy, try again", model.ErrVersionMismatch)
		}
		return err
	}
	defer release()

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return err
	}
	if book.OwnerID != userID {
		return model.NewBookError(model.ErrCodeNotOwner, "Book does not belong to user", model.ErrNotOwner)
	}
	if book.Status != model.BookStatusAvailable {
		return model.NewBookError(
			model.ErrCodeBookNotAvailable,
			fmt.Sprintf("Book with status '%s' cannot be withdrawn", book.Status),
			model.ErrBookNotAvailable,
		)
	}

	return s.bookRepo.UpdateStatus(ctx, bookID, model.BookStatusWithdrawn, book.Version)
}

func (s *bookService) UploadCover(ctx context.Context, userID, bookID uuid.UUID, data []byte, contentType string) (*model.BookResponse, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.OwnerID != userID {
		return nil, model.NewBookError(model.ErrCodeNotOwner, "Book does not belong to user", model.ErrNotOwner)
	}

	key := fmt.Sprintf("books/%s/cover.jpg", bookID)
	url, err := s.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cover: %w", err)
	}

	if err := s.bookRepo.UpdateImagePaths(ctx, bookID, &url, nil); err != nil {
		return nil, err
	}
	book.ImagePath = &url

	// Thumbnail generate bất đồng bộ bởi worker
	if s.asynq != nil {
		payload := shared.CoverResizePayload{
			BookID:    bookID.String(),
			ObjectKey: key,
		}
		if b, err := json.Marshal(payload); err == nil {
			task := asynq.NewTask(shared.TypeBookCoverResize, b)
			if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueMedia)); err != nil {
				logger.Error("Failed to enqueue cover resize job", err)
			}
		}
	}

	resp := model.ToBookResponse(book)
	return &resp, nil
}

func applyUpdate(book *model.Book, req model.UpdateBookRequest) {
	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = req.Author
	}
	if req.Publisher != nil {
		book.Publisher = req.Publisher
	}
	if req.PublishYear != nil {
		book.PublishYear = req.PublishYear
	}
	if req.Language != nil {
		book.Language = req.Language
	}
	if req.Weight != nil {
		book.Weight = req.Weight
	}
	if req.Size != nil {
		book.Size = req.Size
	}
	if req.Pages != nil {
		book.Pages = req.Pages
	}
	if req.Layout != nil {
		book.Layout = req.Layout
	}
	if req.Description != nil {
		book.Description = req.Description
	}
	if req.Categories != nil {
		book.Categories = req.Categories
	}
}
