package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// CreateBookRequest - owner lấy từ auth principal, không nhận từ body
type CreateBookRequest struct {
	Title       string   `json:"title"`
	Author      *string  `json:"author"`
	Publisher   *string  `json:"publisher"`
	PublishYear *int     `json:"publish_year"`
	Language    *string  `json:"language"`
	Weight      *string  `json:"weight"`
	Size        *string  `json:"size"`
	Pages       *int     `json:"pages"`
	Layout      *string  `json:"layout"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.PublishYear, validation.Min(0)),
		validation.Field(&r.Pages, validation.Min(1)),
		validation.Field(&r.Layout, validation.In("Softcover", "Hardcover")),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

// UpdateBookRequest - metadata only; status không bao giờ update qua đây
type UpdateBookRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Publisher   *string  `json:"publisher"`
	PublishYear *int     `json:"publish_year"`
	Language    *string  `json:"language"`
	Weight      *string  `json:"weight"`
	Size        *string  `json:"size"`
	Pages       *int     `json:"pages"`
	Layout      *string  `json:"layout"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(1, 500)),
		validation.Field(&r.Layout, validation.In("Softcover", "Hardcover")),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

// BookResponse là public view của một book
type BookResponse struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Title         string    `json:"title"`
	Author        *string   `json:"author,omitempty"`
	Publisher     *string   `json:"publisher,omitempty"`
	PublishYear   *int      `json:"publish_year,omitempty"`
	Language      *string   `json:"language,omitempty"`
	Weight        *string   `json:"weight,omitempty"`
	Size          *string   `json:"size,omitempty"`
	Pages         *int      `json:"pages,omitempty"`
	Layout        *string   `json:"layout,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ImagePath     *string   `json:"image_path,omitempty"`
	ThumbnailPath *string   `json:"thumbnail_path,omitempty"`
	Categories    []string  `json:"categories"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookSummary là dạng rút gọn nhúng trong offer/transaction responses
type BookSummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author *string   `json:"author,omitempty"`
	Status string    `json:"status"`
}

func ToBookResponse(b *Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		Title:         b.Title,
		Author:        b.Author,
		Publisher:     b.Publisher,
		PublishYear:   b.PublishYear,
		Language:      b.Language,
		Weight:        b.Weight,
		Size:          b.Size,
		Pages:         b.Pages,
		Layout:        b.Layout,
		Description:   b.Description,
		ImagePath:     b.ImagePath,
		ThumbnailPath: b.ThumbnailPath,
		Categories:    b.Categories,
		Status:        b.Status.String(),
		CreatedAt:     b.CreatedAt,
	}
}

func ToBookSummary(b *Book) BookSummary {
	return BookSummary{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Status: b.Status.String(),
	}
}
