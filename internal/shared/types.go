package shared

// Asynq task types
const (
	TypeExchangeSettledNotify = "exchange:settled:notify"
	TypeExchangeExpireOffers  = "exchange:offers:expire"
	TypeBookCoverResize       = "book:cover:resize"
)

// Queue names
const (
	QueueCritical      = "critical"
	QueueNotifications = "notifications"
	QueueMedia         = "media"
)

// ExchangeSettledPayload được enqueue sau khi settlement commit,
// worker gửi notification cho cả owner và borrower.
type ExchangeSettledPayload struct {
	TransactionID string `json:"transaction_id"`
	OfferID       string `json:"offer_id"`
	OwnerID       string `json:"owner_id"`
	BorrowerID    string `json:"borrower_id"`
	TargetBookID  string `json:"target_book_id"`
	ItemType      string `json:"item_type"`
}

// CoverResizePayload chứa book id và object key của ảnh gốc
type CoverResizePayload struct {
	BookID    string `json:"book_id"`
	ObjectKey string `json:"object_key"`
}
