package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceHistory records the state of a product immediately before one of its
// price changes. Rows are append-only: never updated, never deleted, and they
// outlive the product (ProductID is a plain back-reference, no cascade).
type PriceHistory struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;index"`
	// Information is the full JSON snapshot of the product before the change.
	Information   datatypes.JSON  `gorm:"not null"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// SystemPurchasePrice equals PurchasePrice today; kept separate so a
	// supplier-reported cost can diverge from the system one later.
	SystemPurchasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UserID              uint            `gorm:"not null;index"`
	AddedAt             time.Time       `gorm:"not null;autoCreateTime"`
}

func (PriceHistory) TableName() string { return "price_histories" }
