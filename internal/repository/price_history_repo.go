package repository

import (
	"context"
	"math"

	"github.com/BulizzesRG/myownpos/internal/model"

	"gorm.io/gorm"
)

// PriceHistoryRepository is append-only: there is no update or delete.
type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, h *model.PriceHistory) error
	ListByProduct(ctx context.Context, productID uint, page, limit int) ([]model.PriceHistory, int64, error)
	ListAllByProduct(ctx context.Context, productID uint) ([]model.PriceHistory, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, h *model.PriceHistory) error {
	return tx.Create(h).Error
}

// ListByProduct returns paginated price-change records for one product,
// ordered newest-first. Rows of soft-deleted products are included.
func (r *priceHistoryRepo) ListByProduct(
	ctx context.Context,
	productID uint,
	page, limit int,
) ([]model.PriceHistory, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	page = min(page, math.MaxInt32/200)

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.PriceHistory{}).
		Where("product_id = ?", productID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PriceHistory
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("added_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// ListAllByProduct returns the full history oldest-first, for reports.
func (r *priceHistoryRepo) ListAllByProduct(ctx context.Context, productID uint) ([]model.PriceHistory, error) {
	var rows []model.PriceHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("added_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
