package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatOfSell is how a product is sold at the register.
type FormatOfSell string

const (
	FormatPiece   FormatOfSell = "piece"
	FormatService FormatOfSell = "service"
	FormatBulk    FormatOfSell = "bulk"
	FormatBox     FormatOfSell = "box"
)

// FormatsOfSell lists every accepted FormatOfSell in declaration order.
var FormatsOfSell = []FormatOfSell{FormatPiece, FormatService, FormatBulk, FormatBox}

func (f FormatOfSell) Valid() bool {
	for _, v := range FormatsOfSell {
		if v == f {
			return true
		}
	}
	return false
}

// Product is a catalog entry identified externally by ID and looked up at the
// register by either Barcode or AlternativeCode. Both codes share a single
// uniqueness namespace across live products (see the partial unique indexes
// in infra.Migrate and service.IdentityValidator).
//
// DeletedAt is a plain nullable column, not gorm.DeletedAt: the live-row
// filter is applied explicitly by the repository.
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Description     string          `gorm:"size:150;not null" json:"description"`
	Barcode         string          `gorm:"size:20;not null;index" json:"barcode"`
	AlternativeCode string          `gorm:"size:20;not null;index" json:"alternative_code"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"purchase_price"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"sale_price"`
	FormatOfSell    FormatOfSell    `gorm:"type:varchar(10);not null" json:"format_of_sell"`
	// IsActive carries no gorm default so that an explicit false survives Create.
	IsActive  bool       `gorm:"not null" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

func (Product) TableName() string { return "products" }

// Codes returns both identity codes, barcode first.
func (p *Product) Codes() []string {
	return []string{p.Barcode, p.AlternativeCode}
}
