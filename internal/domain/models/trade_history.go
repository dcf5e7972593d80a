package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeHistory is an immutable record of a completed exchange between two
// agents. It is a log shape only; nothing here matches or prices trades.
type TradeHistory struct {
	ID          uuid.UUID       `json:"id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	AssetSymbol string          `json:"asset_symbol"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// Validate checks the record is a well formed log entry.
func (t *TradeHistory) Validate() error {
	const op = "trade.validate"
	switch {
	case t.ID == uuid.Nil:
		return InvalidArgument(op, "trade id is required")
	case t.BuyerID == uuid.Nil || t.SellerID == uuid.Nil:
		return InvalidArgument(op, "buyer and seller are required")
	case t.BuyerID == t.SellerID:
		return InvalidArgument(op, "buyer and seller must differ")
	case strings.TrimSpace(t.AssetSymbol) == "":
		return InvalidArgument(op, "asset symbol is required")
	case !t.Price.IsPositive():
		return InvalidArgument(op, "price must be positive: %s", t.Price)
	case t.Quantity <= 0:
		return InvalidArgument(op, "quantity must be positive: %d", t.Quantity)
	case t.ExecutedAt.IsZero():
		return InvalidArgument(op, "execution time is required")
	}
	return nil
}
