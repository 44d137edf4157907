package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMoneyUnit dùng khi request không chỉ định đơn vị tiền
const DefaultMoneyUnit = "VND"

// MoneyItem là khoản tiền gắn với một offer loại money
type MoneyItem struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Unit      string
	CreatedAt time.Time
}
