package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/validation"

	"gorm.io/gorm"
)

// ProductService defines the write side of the catalog plus direct lookups.
type ProductService interface {
	Create(ctx context.Context, actor Actor, in dto.Payload) (*dto.ProductResponse, error)
	Update(ctx context.Context, actor Actor, id uint, in dto.Payload) (*dto.ProductResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	FindByID(ctx context.Context, actor Actor, id uint) (*dto.ProductResponse, error)
	FindByCode(ctx context.Context, actor Actor, code string) (*dto.ProductResponse, error)
}

type productService struct {
	repo     repository.ProductRepository
	history  repository.PriceHistoryRepository
	identity *IdentityValidator
	indexer  Indexer
	cache    ProductCache
}

func NewProductService(
	repo repository.ProductRepository,
	history repository.PriceHistoryRepository,
	indexer Indexer,
	cache ProductCache,
) ProductService {
	if cache == nil {
		cache = noopCache{}
	}
	return &productService{
		repo:     repo,
		history:  history,
		identity: NewIdentityValidator(repo),
		indexer:  indexer,
		cache:    cache,
	}
}

// ── Create ──────────────────────────────────────────────────────────────────

func (s *productService) Create(ctx context.Context, actor Actor, in dto.Payload) (*dto.ProductResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in = trimStrings(in)
	if err := s.validate(ctx, createRules(s.identity), in); err != nil {
		return nil, err
	}

	p := &model.Product{IsActive: true}
	applyDescriptive(p, in)
	p.PurchasePrice, _ = priceValue(in, fieldPurchasePrice)
	p.SalePrice, _ = priceValue(in, fieldSalePrice)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, s.conflict(ctx, p, err)
	}

	s.indexer.Index(ctx, p)
	s.cache.Invalidate(ctx, p.Codes()...)
	resp := dto.NewProductResponse(p)
	return &resp, nil
}

// ── Update ──────────────────────────────────────────────────────────────────

// Update applies descriptive attributes. Prices are optional here; when they
// are sent and differ from the stored ones the change is audited exactly like
// a price update, in the same transaction as the write.
func (s *productService) Update(ctx context.Context, actor Actor, id uint, in dto.Payload) (*dto.ProductResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in = trimStrings(in)
	if err := s.validate(ctx, updateRules(s.identity, p.ID), in); err != nil {
		return nil, err
	}

	purchase, hasPurchase := priceValue(in, fieldPurchasePrice)
	sale, hasSale := priceValue(in, fieldSalePrice)

	// The audited "before" is the row as locked inside the transaction, not
	// the read above, so a concurrent price change is never lost.
	var before model.Product
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		before = *current
		p = current
		applyDescriptive(p, in)
		if hasPurchase {
			p.PurchasePrice = purchase
		}
		if hasSale {
			p.SalePrice = sale
		}
		if !before.PurchasePrice.Equal(p.PurchasePrice) || !before.SalePrice.Equal(p.SalePrice) {
			h, err := auditSnapshot(&before, actor)
			if err != nil {
				return err
			}
			if err := s.history.CreateTx(tx, h); err != nil {
				return fmt.Errorf("record price history: %w", err)
			}
		}
		return s.repo.UpdateTx(tx, p)
	})
	if err != nil {
		return nil, s.conflict(ctx, p, err)
	}

	s.indexer.Index(ctx, p)
	s.cache.Invalidate(ctx, append(before.Codes(), p.Codes()...)...)
	resp := dto.NewProductResponse(p)
	return &resp, nil
}

// ── Delete ──────────────────────────────────────────────────────────────────

func (s *productService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.indexer.Unindex(ctx, id)
	s.cache.Invalidate(ctx, p.Codes()...)
	return nil
}

// ── Lookups ─────────────────────────────────────────────────────────────────

func (s *productService) FindByID(ctx context.Context, actor Actor, id uint) (*dto.ProductResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(p)
	return &resp, nil
}

// FindByCode matches either code. Hits are served from the cache.
func (s *productService) FindByCode(ctx context.Context, actor Actor, code string) (*dto.ProductResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, code); ok {
		return cached, nil
	}
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := dto.NewProductResponse(p)
	s.cache.Set(ctx, code, resp)
	return &resp, nil
}

// ── helpers ─────────────────────────────────────────────────────────────────

func (s *productService) validate(ctx context.Context, rules validation.Table, in dto.Payload) error {
	violations, err := rules.Validate(ctx, in)
	if err != nil {
		return err
	}
	if !violations.Empty() {
		return validationError(violations)
	}
	return nil
}

// conflict turns a unique-index violation that slipped past validation (two
// concurrent writers) into the same field errors validation would report.
func (s *productService) conflict(ctx context.Context, p *model.Product, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	violations, verr := s.identity.Check(ctx, p.Barcode, p.AlternativeCode, p.ID)
	if verr != nil || violations.Empty() {
		return err
	}
	return validationError(violations)
}

func applyDescriptive(p *model.Product, in dto.Payload) {
	p.Description, _ = validation.String(in[fieldDescription])
	p.Barcode, _ = validation.String(in[repository.ColumnBarcode])
	p.AlternativeCode, _ = validation.String(in[repository.ColumnAlternativeCode])
	format, _ := validation.String(in[fieldFormatOfSell])
	p.FormatOfSell = model.FormatOfSell(format)
	if active, ok := validation.Bool(in[fieldIsActive]); ok {
		p.IsActive = active
	}
}
