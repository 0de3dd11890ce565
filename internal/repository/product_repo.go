package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Code columns accepted by CodeInUse.
const (
	ColumnBarcode         = "barcode"
	ColumnAlternativeCode = "alternative_code"
)

// ProductRepository defines the data access contract for products.
// Every method except FindAnyByID sees live (non-deleted) rows only.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	// FindAnyByID includes soft-deleted rows; audit views only.
	FindAnyByID(ctx context.Context, id uint) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	// LiveIDs filters ids down to those of live products, preserving input order.
	LiveIDs(ctx context.Context, ids []uint) ([]uint, error)
	List(ctx context.Context, offset, limit int) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id uint) error
	// CodeInUse reports whether a live product other than excludeID holds code
	// in column. excludeID 0 excludes nothing.
	CodeInUse(ctx context.Context, column, code string, excludeID uint) (bool, error)

	// Used inside transactions; callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error)
	UpdateTx(tx *gorm.DB, p *model.Product) error
	UpdatePricesTx(tx *gorm.DB, id uint, purchase, sale decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

// live is the single place the soft-delete filter is applied. It returns a
// fresh chain on every call so conditions never leak between queries.
func (r *productRepo) live(ctx context.Context) *gorm.DB {
	return liveScope(r.db.WithContext(ctx))
}

func liveScope(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Product{}).Where("products.deleted_at IS NULL")
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	return firstProduct(r.live(ctx).Where("products.id = ?", id))
}

func (r *productRepo) FindAnyByID(ctx context.Context, id uint) (*model.Product, error) {
	return firstProduct(r.db.WithContext(ctx).Model(&model.Product{}).Where("products.id = ?", id))
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	return firstProduct(r.live(ctx).
		Where("(products.barcode = ? OR products.alternative_code = ?)", code, code).
		Order("products.id ASC"))
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.live(ctx).Where("products.id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) LiveIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := r.live(ctx).Where("products.id IN ?", ids).Pluck("products.id", &found).Error; err != nil {
		return nil, err
	}
	alive := make(map[uint]struct{}, len(found))
	for _, id := range found {
		alive[id] = struct{}{}
	}
	out := make([]uint, 0, len(found))
	for _, id := range ids {
		if _, ok := alive[id]; ok {
			out = append(out, id)
			delete(alive, id)
		}
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, offset, limit int) ([]model.Product, int64, error) {
	var total int64
	if err := r.live(ctx).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := r.live(ctx).
		Order("products.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.UpdateTx(r.db.WithContext(ctx), p)
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	p.UpdatedAt = time.Now()
	// A map keeps is_active=false from being skipped as a zero value.
	res := liveScope(tx).Where("products.id = ?", p.ID).Updates(map[string]interface{}{
		"description":      p.Description,
		"barcode":          p.Barcode,
		"alternative_code": p.AlternativeCode,
		"purchase_price":   p.PurchasePrice,
		"sale_price":       p.SalePrice,
		"format_of_sell":   p.FormatOfSell,
		"is_active":        p.IsActive,
		"updated_at":       p.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update product %d: %w", p.ID, apierror.ErrNotFound)
	}
	return nil
}

func (r *productRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.live(ctx).Where("products.id = ?", id).Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete product %d: %w", id, apierror.ErrNotFound)
	}
	return nil
}

func (r *productRepo) CodeInUse(ctx context.Context, column, code string, excludeID uint) (bool, error) {
	switch column {
	case ColumnBarcode, ColumnAlternativeCode:
	default:
		return false, fmt.Errorf("code column %q not allowed", column)
	}
	q := r.live(ctx).Where("products."+column+" = ?", code)
	if excludeID != 0 {
		q = q.Where("products.id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByIDTx reads the row FOR UPDATE so concurrent writers of the same
// product serialise on it (no-op on SQLite, which locks the whole database).
func (r *productRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error) {
	return firstProduct(liveScope(tx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("products.id = ?", id))
}

func (r *productRepo) UpdatePricesTx(tx *gorm.DB, id uint, purchase, sale decimal.Decimal) error {
	res := liveScope(tx).Where("products.id = ?", id).Updates(map[string]interface{}{
		"purchase_price": purchase,
		"sale_price":     sale,
		"updated_at":     time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update prices of product %d: %w", id, apierror.ErrNotFound)
	}
	return nil
}

func firstProduct(q *gorm.DB) (*model.Product, error) {
	var p model.Product
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
