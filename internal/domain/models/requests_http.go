package models

// Requests for reporting HTTP endpoints. Defined in domain for consistency and reuse.

type AgentRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

type AgentListRequest struct {
	SectorID string `query:"sector_id" validate:"omitempty,uuid"`
	Limit    int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type TradeQueryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}

type RecordTradeRequest struct {
	BuyerID     string `json:"buyer_id" validate:"required,uuid"`
	SellerID    string `json:"seller_id" validate:"required,uuid,nefield=BuyerID"`
	AssetSymbol string `json:"asset_symbol" validate:"required"`
	Price       string `json:"price" validate:"required,numeric"`
	Quantity    int64  `json:"quantity" validate:"gte=1"`
	ExecutedAt  string `json:"executed_at"`
}
