package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PriceChangeQueue receives a notification after each committed price change.
type PriceChangeQueue interface {
	EnqueuePriceChanged(ctx context.Context, ev dto.PriceChangedEvent) error
}

// PriceService is the price audit ledger: every price change leaves exactly
// one append-only history record holding the state before the change.
type PriceService interface {
	UpdatePrice(ctx context.Context, actor Actor, id uint, in dto.Payload) (*dto.ProductResponse, error)
	History(ctx context.Context, actor Actor, id uint, page, limit int) (*dto.PriceHistoryPage, error)
	HistoryReport(ctx context.Context, actor Actor, id uint) ([]byte, error)
}

type priceService struct {
	products repository.ProductRepository
	history  repository.PriceHistoryRepository
	cache    ProductCache
	notify   PriceChangeQueue // nil = no notifications
}

func NewPriceService(
	products repository.ProductRepository,
	history repository.PriceHistoryRepository,
	cache ProductCache,
	notify PriceChangeQueue,
) PriceService {
	if cache == nil {
		cache = noopCache{}
	}
	return &priceService{products: products, history: history, cache: cache, notify: notify}
}

// ── UpdatePrice ─────────────────────────────────────────────────────────────
//  1. Product must exist (404)
//  2. Validate both prices (422); nothing is written on failure
//  3. BEGIN TX: read current row, insert history snapshot, overwrite prices
//  4. COMMIT, then invalidate cache and queue the notification

func (s *priceService) UpdatePrice(ctx context.Context, actor Actor, id uint, in dto.Payload) (*dto.ProductResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return nil, err
	}
	in = trimStrings(in)
	violations, err := priceUpdateRules().Validate(ctx, in)
	if err != nil {
		return nil, err
	}
	if !violations.Empty() {
		return nil, validationError(violations)
	}
	purchase, _ := priceValue(in, fieldPurchasePrice)
	sale, _ := priceValue(in, fieldSalePrice)

	var before, after model.Product
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		current, err := s.products.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		before = *current

		h, err := auditSnapshot(current, actor)
		if err != nil {
			return err
		}
		if err := s.history.CreateTx(tx, h); err != nil {
			return fmt.Errorf("record price history: %w", err)
		}
		if err := s.products.UpdatePricesTx(tx, id, purchase, sale); err != nil {
			return err
		}
		after = *current
		after.PurchasePrice = purchase
		after.SalePrice = sale
		after.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, after.Codes()...)
	s.notifyChange(ctx, actor, &before, &after)

	resp := dto.NewProductResponse(&after)
	return &resp, nil
}

func (s *priceService) notifyChange(ctx context.Context, actor Actor, before, after *model.Product) {
	if s.notify == nil {
		return
	}
	ev := dto.PriceChangedEvent{
		ProductID:        after.ID,
		Description:      after.Description,
		Barcode:          after.Barcode,
		OldPurchasePrice: before.PurchasePrice.InexactFloat64(),
		OldSalePrice:     before.SalePrice.InexactFloat64(),
		NewPurchasePrice: after.PurchasePrice.InexactFloat64(),
		NewSalePrice:     after.SalePrice.InexactFloat64(),
		UserID:           actor.UserID,
		ChangedAt:        after.UpdatedAt.Format(time.RFC3339),
	}
	if err := s.notify.EnqueuePriceChanged(ctx, ev); err != nil {
		log.Warn().Err(err).Uint("product_id", after.ID).Msg("price change notification not queued")
	}
}

// ── History ─────────────────────────────────────────────────────────────────

// History lists records newest first. It works for deleted products: the
// ledger outlives the catalog entry.
func (s *priceService) History(ctx context.Context, actor Actor, id uint, page, limit int) (*dto.PriceHistoryPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.products.FindAnyByID(ctx, id); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.history.ListByProduct(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PriceHistoryItem, 0, len(rows))
	for i := range rows {
		items = append(items, dto.NewPriceHistoryItem(&rows[i]))
	}
	return &dto.PriceHistoryPage{Data: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *priceService) HistoryReport(ctx context.Context, actor Actor, id uint) ([]byte, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.products.FindAnyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.history.ListAllByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return infra.GeneratePriceHistoryPDF(p, rows)
}
