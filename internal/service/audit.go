package service

import (
	"encoding/json"
	"fmt"

	"github.com/BulizzesRG/myownpos/internal/model"

	"gorm.io/datatypes"
)

// auditSnapshot builds the history record for a product about to change
// price. before must hold the pre-change state.
func auditSnapshot(before *model.Product, actor Actor) (*model.PriceHistory, error) {
	info, err := json.Marshal(before)
	if err != nil {
		return nil, fmt.Errorf("snapshot product %d: %w", before.ID, err)
	}
	return &model.PriceHistory{
		ProductID:           before.ID,
		Information:         datatypes.JSON(info),
		SalePrice:           before.SalePrice,
		PurchasePrice:       before.PurchasePrice,
		SystemPurchasePrice: before.PurchasePrice,
		UserID:              actor.UserID,
	}, nil
}
