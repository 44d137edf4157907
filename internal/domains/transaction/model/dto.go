package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionResponse là public view của một bản ghi ledger
type TransactionResponse struct {
	ID              uuid.UUID  `json:"id"`
	OfferID         uuid.UUID  `json:"offer_id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	BorrowerID      uuid.UUID  `json:"borrower_id"`
	TargetBookID    uuid.UUID  `json:"target_book_id"`
	ItemType        string     `json:"item_type"`
	ExchangedBookID *uuid.UUID `json:"exchanged_book_id,omitempty"`
	Amount          *string    `json:"amount,omitempty"`
	Unit            *string    `json:"unit,omitempty"`
	OwnerEmail      string     `json:"owner_email,omitempty"`
	BorrowerEmail   string     `json:"borrower_email,omitempty"`
	BookTitle       string     `json:"book_title,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DailyCount cho thống kê theo ngày / theo tháng
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TransactionStats là summary cached trong Redis
type TransactionStats struct {
	Total   int          `json:"total"`
	ByDate  []DailyCount `json:"by_date"`
	ByMonth []DailyCount `json:"by_month"`
}

func ToTransactionResponse(t *TransactionDetail) TransactionResponse {
	resp := TransactionResponse{
		ID:              t.ID,
		OfferID:         t.OfferID,
		OwnerID:         t.OwnerID,
		BorrowerID:      t.BorrowerID,
		TargetBookID:    t.TargetBookID,
		ItemType:        t.ItemType,
		ExchangedBookID: t.ExchangedBookID,
		Unit:            t.Unit,
		OwnerEmail:      t.OwnerEmail,
		BorrowerEmail:   t.BorrowerEmail,
		BookTitle:       t.BookTitle,
		CreatedAt:       t.CreatedAt,
	}
	if t.Amount != nil {
		s := t.Amount.String()
		resp.Amount = &s
	}
	return resp
}
