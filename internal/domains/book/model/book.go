package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BookStatus expresses whether a book is offerable.
// available  — offerable, chủ sở hữu đang cho trao đổi
// pending    — locked for negotiation: một offer active đang target book này
// exchanged  — đã đổi chủ qua một transaction, không offerable nữa
// withdrawn  — owner rút khỏi sàn, không offerable
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusPending   BookStatus = "pending"
	BookStatusExchanged BookStatus = "exchanged"
	BookStatusWithdrawn BookStatus = "withdrawn"
)

func (s BookStatus) IsValid() bool {
	switch s {
	case BookStatusAvailable, BookStatusPending, BookStatusExchanged, BookStatusWithdrawn:
		return true
	}
	return false
}

func (s BookStatus) String() string {
	return string(s)
}

// Offerable báo book có thể là target của một offer mới không
func (s BookStatus) Offerable() bool {
	return s == BookStatusAvailable
}

// Book represents a physical book listed for exchange.
// Owner là foreign key tường minh; status chỉ được mutate bởi
// settlement engine hoặc owner withdrawal.
type Book struct {
	// Identity
	ID    uuid.UUID `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`

	// Ownership
	OwnerID uuid.UUID `json:"owner_id" db:"owner_id"`

	// Bibliographic data
	Author      *string `json:"author" db:"author"`
	Publisher   *string `json:"publisher" db:"publisher"`
	PublishYear *int    `json:"publish_year" db:"publish_year"`
	Language    *string `json:"language" db:"language"`

	// Physical attributes
	Weight *string `json:"weight" db:"weight"`
	Size   *string `json:"size" db:"size"`
	Pages  *int    `json:"pages" db:"pages"`
	Layout *string `json:"layout" db:"layout"` // Softcover | Hardcover

	// Content
	Description   *string        `json:"description" db:"description"`
	ImagePath     *string        `json:"image_path" db:"image_path"`
	ThumbnailPath *string        `json:"thumbnail_path" db:"thumbnail_path"`
	Categories    pq.StringArray `json:"categories" db:"categories"`

	// State
	Status  BookStatus `json:"status" db:"status"`
	Version int        `json:"version" db:"version"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
