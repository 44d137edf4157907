package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction là bản ghi bất biến của một lần settlement.
// Amount/Unit denormalize từ money item tại thời điểm settle;
// ExchangedBookID set khi đổi sách lấy sách.
type Transaction struct {
	ID              uuid.UUID
	OfferID         uuid.UUID
	OwnerID         uuid.UUID // chủ sách trước settlement
	BorrowerID      uuid.UUID // chủ sách sau settlement
	TargetBookID    uuid.UUID
	ItemType        string // book | money
	ExchangedBookID *uuid.UUID
	Amount          *decimal.Decimal
	Unit            *string
	CreatedAt       time.Time
}

// TransactionDetail là transaction enrich với dữ liệu join từ users/books,
// dùng cho list/search/export
type TransactionDetail struct {
	Transaction
	OwnerEmail    string
	BorrowerEmail string
	BookTitle     string
}
