package dto

import (
	"encoding/json"
	"time"

	"github.com/BulizzesRG/myownpos/internal/model"
)

// PriceHistoryItem is one row in the price-history list.
type PriceHistoryItem struct {
	ID                  uint            `json:"id"`
	ProductID           uint            `json:"product_id"`
	SalePrice           float64         `json:"sale_price"`
	PurchasePrice       float64         `json:"purchase_price"`
	SystemPurchasePrice float64         `json:"system_purchase_price"`
	UserID              uint            `json:"user_id"`
	Information         json.RawMessage `json:"information"`
	AddedAt             string          `json:"added_at"`
}

// PriceHistoryPage is returned by GET /v1/products/:id/price-history.
type PriceHistoryPage struct {
	Data  []PriceHistoryItem `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func NewPriceHistoryItem(h *model.PriceHistory) PriceHistoryItem {
	return PriceHistoryItem{
		ID:                  h.ID,
		ProductID:           h.ProductID,
		SalePrice:           h.SalePrice.InexactFloat64(),
		PurchasePrice:       h.PurchasePrice.InexactFloat64(),
		SystemPurchasePrice: h.SystemPurchasePrice.InexactFloat64(),
		UserID:              h.UserID,
		Information:         json.RawMessage(h.Information),
		AddedAt:             h.AddedAt.Format(time.RFC3339),
	}
}

// PriceChangedEvent is queued after a committed price change.
type PriceChangedEvent struct {
	ProductID        uint    `json:"product_id"`
	Description      string  `json:"description"`
	Barcode          string  `json:"barcode"`
	OldPurchasePrice float64 `json:"old_purchase_price"`
	OldSalePrice     float64 `json:"old_sale_price"`
	NewPurchasePrice float64 `json:"new_purchase_price"`
	NewSalePrice     float64 `json:"new_sale_price"`
	UserID           uint    `json:"user_id"`
	ChangedAt        string  `json:"changed_at"`
}
