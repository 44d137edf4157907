package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookmodel "bookexchange-backend/internal/domains/book/model"
)

// CreateOfferRequest - borrower lấy từ auth principal.
// Với item_type=book thì book_item_id bắt buộc; với money thì amount bắt buộc.
type CreateOfferRequest struct {
	TargetBookID string  `json:"target_book_id"`
	ItemType     string  `json:"item_type"`
	BookItemID   *string `json:"book_item_id,omitempty"`
	Amount       *string `json:"amount,omitempty"`
	Unit         *string `json:"unit,omitempty"`
}

func (r CreateOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetBookID, validation.Required, validation.By(validateUUIDString)),
		validation.Field(&r.ItemType, validation.Required, validation.In("book", "money")),
		validation.Field(&r.BookItemID,
			validation.When(r.ItemType == string(ItemTypeBook), validation.Required, validation.By(validateUUIDPtr)),
			validation.When(r.ItemType == string(ItemTypeMoney), validation.Nil),
		),
		validation.Field(&r.Amount,
			validation.When(r.ItemType == string(ItemTypeMoney), validation.Required, validation.By(validateAmountPtr)),
			validation.When(r.ItemType == string(ItemTypeBook), validation.Nil),
		),
		validation.Field(&r.Unit, validation.Length(1, 10)),
	)
}

func validateUUIDString(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
}

func validateUUIDPtr(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	return validateUUIDString(*s)
}

func validateAmountPtr(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return validation.NewError("validation_amount", "must be a decimal number")
	}
	if d.IsNegative() {
		return validation.NewError("validation_amount", "must not be negative")
	}
	return nil
}

// MoneyItemResponse hiển thị khoản tiền của một money offer
type MoneyItemResponse struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// OfferResponse là public view của một offer
type OfferResponse struct {
	ID           uuid.UUID              `json:"id"`
	OwnerID      uuid.UUID              `json:"owner_id"`
	BorrowerID   uuid.UUID              `json:"borrower_id"`
	TargetBookID uuid.UUID              `json:"target_book_id"`
	ItemType     string                 `json:"item_type"`
	Status       string                 `json:"status"`
	TargetBook   *bookmodel.BookSummary `json:"target_book,omitempty"`
	BookItem     *bookmodel.BookSummary `json:"book_item,omitempty"`
	MoneyItem    *MoneyItemResponse     `json:"money_item,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// SettlementResponse trả về sau khi accept offer thành công
type SettlementResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	OfferID       uuid.UUID `json:"offer_id"`
	TargetBookID  uuid.UUID `json:"target_book_id"`
	NewOwnerID    uuid.UUID `json:"new_owner_id"`
	ItemType      string    `json:"item_type"`
	SettledAt     time.Time `json:"settled_at"`
}

func ToOfferResponse(o *ExchangeOffer) OfferResponse {
	return OfferResponse{
		ID:           o.ID,
		OwnerID:      o.OwnerID,
		BorrowerID:   o.BorrowerID,
		TargetBookID: o.TargetBookID,
		ItemType:     o.ItemType.String(),
		Status:       o.Status.String(),
		CreatedAt:    o.CreatedAt,
	}
}

func ToMoneyItemResponse(m *MoneyItem) *MoneyItemResponse {
	if m == nil {
		return nil
	}
	return &MoneyItemResponse{
		Amount: m.Amount.String(),
		Unit:   m.Unit,
	}
}
