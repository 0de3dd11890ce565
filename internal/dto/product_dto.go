package dto

import (
	"github.com/BulizzesRG/myownpos/internal/model"
)

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ProductResponse is the wire shape of a product. Prices are emitted both as
// floats and as integer cents for register clients that avoid floating point.
type ProductResponse struct {
	ID               uint    `json:"id"`
	Description      string  `json:"description"`
	Barcode          string  `json:"barcode"`
	AlternativeCode  string  `json:"alternative_code"`
	PurchasePrice    float64 `json:"purchase_price"`
	SalePrice        float64 `json:"sale_price"`
	IntPurchasePrice int64   `json:"int_purchase_price"`
	IntSalePrice     int64   `json:"int_sale_price"`
	FormatOfSell     string  `json:"format_of_sell"`
	IsActive         int     `json:"is_active"`
}

type ProductEnvelope struct {
	Product ProductResponse `json:"product"`
}

type ProductListEnvelope struct {
	Products ProductPage `json:"products"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Data  []ProductResponse `json:"data"`
	Links PageLinks         `json:"links"`
	Meta  PageMeta          `json:"meta"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	active := 0
	if p.IsActive {
		active = 1
	}
	return ProductResponse{
		ID:               p.ID,
		Description:      p.Description,
		Barcode:          p.Barcode,
		AlternativeCode:  p.AlternativeCode,
		PurchasePrice:    p.PurchasePrice.InexactFloat64(),
		SalePrice:        p.SalePrice.InexactFloat64(),
		IntPurchasePrice: p.PurchasePrice.Shift(2).Round(0).IntPart(),
		IntSalePrice:     p.SalePrice.Shift(2).Round(0).IntPart(),
		FormatOfSell:     string(p.FormatOfSell),
		IsActive:         active,
	}
}

func NewProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, NewProductResponse(&products[i]))
	}
	return out
}
