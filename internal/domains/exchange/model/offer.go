package model

import (
	"time"

	"github.com/google/uuid"
)

// OfferStatus là trạng thái vòng đời của một offer
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

func (s OfferStatus) String() string {
	return string(s)
}

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusPending, OfferStatusAccepted, OfferStatusRejected:
		return true
	}
	return false
}

// Active = còn có thể accept/reject
func (s OfferStatus) Active() bool {
	return s == OfferStatusPending
}

// ItemType phân biệt offer đổi sách hay trả tiền
type ItemType string

const (
	ItemTypeBook  ItemType = "book"
	ItemTypeMoney ItemType = "money"
)

func (t ItemType) String() string {
	return string(t)
}

func (t ItemType) IsValid() bool {
	return t == ItemTypeBook || t == ItemTypeMoney
}

// ExchangeOffer là một đề nghị trao đổi trên một target book.
// Đúng một trong BookItemID / MoneyItemID non-nil tùy ItemType.
type ExchangeOffer struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID // chủ sách target
	BorrowerID   uuid.UUID // người đưa ra đề nghị
	TargetBookID uuid.UUID
	ItemType     ItemType
	BookItemID   *uuid.UUID
	MoneyItemID  *uuid.UUID
	Status       OfferStatus
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
