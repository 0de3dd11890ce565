package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_ReturnsIntegerCents(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Create(context.Background(), staff,
		productPayload("Refresco cola 600ml", "7501055300075", "COLA600", "10", "15"))
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	assert.Equal(t, int64(1000), p.IntPurchasePrice)
	assert.Equal(t, int64(1500), p.IntSalePrice)
	assert.Equal(t, 1, p.IsActive)
	assert.Equal(t, "piece", p.FormatOfSell)
	assert.True(t, f.index.has(p.ID), "new product is indexed")
}

func TestCreate_AcceptsExplicitInactive(t *testing.T) {
	f := newFixture(t)
	in := productPayload("Bolsa de hielo", "HIELO01", "HIELO02", "5", "8")
	in["is_active"] = json.Number("0")

	p, err := f.svc.Create(context.Background(), staff, in)
	require.NoError(t, err)
	assert.Equal(t, 0, p.IsActive)
}

func TestCreate_BarcodeClashesWithOtherAlternativeCode(t *testing.T) {
	f := newFixture(t)
	f.create(t, "First product", "AAA111", "BBB222")

	_, err := f.svc.Create(context.Background(), staff,
		productPayload("Second product", "BBB222", "CCC333", "10", "15"))

	assert.Equal(t, map[string][]string{"barcode": {"not unique"}}, fieldsOf(t, err))
}

func TestCreate_AlternativeCodeClashesWithOtherBarcode(t *testing.T) {
	f := newFixture(t)
	f.create(t, "First product", "AAA111", "BBB222")

	_, err := f.svc.Create(context.Background(), staff,
		productPayload("Second product", "CCC333", "AAA111", "10", "15"))

	assert.Equal(t, map[string][]string{"alternative_code": {"not unique"}}, fieldsOf(t, err))
}

func TestCreate_SameValueForBothOwnCodes(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.Create(context.Background(), staff,
		productPayload("Single code product", "SAME123", "SAME123", "10", "15"))
	require.NoError(t, err)
	assert.Equal(t, p.Barcode, p.AlternativeCode)
}

func TestCreate_CollectsEveryViolation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), staff, dto.Payload{})

	assert.Equal(t, map[string][]string{
		"description":      {"is required"},
		"barcode":          {"is required"},
		"alternative_code": {"is required"},
		"purchase_price":   {"is required"},
		"sale_price":       {"is required"},
		"format_of_sell":   {"is required"},
	}, fieldsOf(t, err))
}

func TestCreate_FieldRulesInOrder(t *testing.T) {
	f := newFixture(t)
	in := dto.Payload{
		"description":      "ab",
		"barcode":          "12-34",
		"alternative_code": "X1",
		"purchase_price":   "abc",
		"sale_price":       json.Number("1000000.01"),
		"format_of_sell":   "pallet",
	}

	_, err := f.svc.Create(context.Background(), staff, in)

	assert.Equal(t, map[string][]string{
		"description":      {"must be at least 3 characters"},
		"barcode":          {"must only contain letters and numbers"},
		"alternative_code": {"must be at least 3 characters"},
		"purchase_price":   {"must be a number"},
		"sale_price":       {"must not be greater than 1000000"},
		"format_of_sell":   {"must be one of: piece, service, bulk, box"},
	}, fieldsOf(t, err))
}

func TestCreate_RequiresActor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), service.Actor{}, productPayload("Product", "AAA111", "BBB222", "1", "2"))
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
}

func TestUpdate_KeepsOwnCodes(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")

	got, err := f.svc.Update(context.Background(), staff, p.ID, dto.Payload{
		"description":      "Renamed",
		"barcode":          "AAA111",
		"alternative_code": "BBB222",
		"format_of_sell":   "box",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Description)
	assert.Equal(t, "box", got.FormatOfSell)
}

func TestUpdate_SwapCodesWithinSameProduct(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")

	_, err := f.svc.Update(context.Background(), staff, p.ID, dto.Payload{
		"description":      "Original",
		"barcode":          "BBB222",
		"alternative_code": "AAA111",
		"format_of_sell":   "piece",
	})
	require.NoError(t, err)
}

func TestUpdate_RejectsCodeOfAnotherProduct(t *testing.T) {
	f := newFixture(t)
	f.create(t, "First", "AAA111", "BBB222")
	second := f.create(t, "Second", "CCC333", "DDD444")

	_, err := f.svc.Update(context.Background(), staff, second.ID, dto.Payload{
		"description":      "Second",
		"barcode":          "CCC333",
		"alternative_code": "AAA111",
		"format_of_sell":   "piece",
	})
	assert.Equal(t, map[string][]string{"alternative_code": {"not unique"}}, fieldsOf(t, err))
}

func TestUpdate_WithoutPricesPreservesThem(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")

	got, err := f.svc.Update(context.Background(), staff, p.ID, dto.Payload{
		"description":      "Renamed",
		"barcode":          "AAA111",
		"alternative_code": "BBB222",
		"format_of_sell":   "piece",
	})
	require.NoError(t, err)
	assert.Equal(t, p.IntPurchasePrice, got.IntPurchasePrice)
	assert.Equal(t, p.IntSalePrice, got.IntSalePrice)
	assert.Zero(t, f.historyCount(t, p.ID))

	stored, err := f.svc.FindByID(context.Background(), staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.IntPurchasePrice)
	assert.Equal(t, int64(1500), stored.IntSalePrice)
}

func TestUpdate_WithChangedPricesIsAudited(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")

	in := productPayload("Original", "AAA111", "BBB222", "12.50", "15.00")
	got, err := f.svc.Update(context.Background(), staff, p.ID, in)
	require.NoError(t, err)

	assert.Equal(t, int64(1250), got.IntPurchasePrice)
	assert.EqualValues(t, 1, f.historyCount(t, p.ID))
}

// staleReadRepo answers FindByID with a copy taken before a concurrent price
// change, the way a read outside the write transaction can.
type staleReadRepo struct {
	repository.ProductRepository
	stale model.Product
}

func (r staleReadRepo) FindByID(context.Context, uint) (*model.Product, error) {
	p := r.stale
	return &p, nil
}

func TestUpdate_AuditsPricesReadInsideTransaction(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")
	stale, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("11.00", "16.00"))
	require.NoError(t, err)

	svc := service.NewProductService(staleReadRepo{f.products, *stale}, f.history, service.NewSyncIndexer(nil), nil)
	_, err = svc.Update(context.Background(), staff, p.ID, productPayload("Original", "AAA111", "BBB222", "12.00", "17.00"))
	require.NoError(t, err)

	page, err := f.prices.History(context.Background(), staff, p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 11.0, page.Data[0].PurchasePrice)
	assert.Equal(t, 16.0, page.Data[0].SalePrice)
}

func TestUpdate_PricesRoundedToCents(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")

	// 15.004 rounds back to the stored 15.00; only the purchase price changed
	got, err := f.svc.Update(context.Background(), staff, p.ID, productPayload("Original", "AAA111", "BBB222", "10.555", "15.004"))
	require.NoError(t, err)
	assert.Equal(t, 10.56, got.PurchasePrice)
	assert.Equal(t, 15.0, got.SalePrice)
	assert.EqualValues(t, 1, f.historyCount(t, p.ID))
}

func TestCreate_PricesRoundedToCents(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Create(context.Background(), staff, productPayload("Rounded", "AAA111", "BBB222", "10.555", "15.994"))
	require.NoError(t, err)
	assert.Equal(t, 10.56, got.PurchasePrice)
	assert.Equal(t, 15.99, got.SalePrice)

	stored, err := f.svc.FindByID(context.Background(), staff, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.PurchasePrice, stored.PurchasePrice)
	assert.Equal(t, got.SalePrice, stored.SalePrice)
}

func TestUpdate_UnknownProductIsNotFoundBeforeValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Update(context.Background(), staff, 404, dto.Payload{})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestUpdate_InvalidatesOldAndNewCodes(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Original", "AAA111", "BBB222")
	f.cache.invalidated = nil

	_, err := f.svc.Update(context.Background(), staff, p.ID, dto.Payload{
		"description":      "Original",
		"barcode":          "NEW111",
		"alternative_code": "BBB222",
		"format_of_sell":   "piece",
	})
	require.NoError(t, err)
	assert.Subset(t, f.cache.invalidated, []string{"AAA111", "BBB222", "NEW111"})
}

func TestDelete_SoftDeletesOnce(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Doomed", "AAA111", "BBB222")

	require.NoError(t, f.svc.Delete(context.Background(), staff, p.ID))
	assert.False(t, f.index.has(p.ID), "deleted product leaves the index")

	_, err := f.svc.FindByID(context.Background(), staff, p.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	err = f.svc.Delete(context.Background(), staff, p.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestDelete_FreesCodesForNewProducts(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Doomed", "AAA111", "BBB222")
	require.NoError(t, f.svc.Delete(context.Background(), staff, p.ID))

	again := f.create(t, "Replacement", "BBB222", "AAA111")
	assert.NotEqual(t, p.ID, again.ID)
}

func TestFindByCode_MatchesEitherCodeAndCaches(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Coded", "AAA111", "BBB222")

	got, err := f.svc.FindByCode(context.Background(), staff, "BBB222")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Contains(t, f.cache.entries, "BBB222")

	_, err = f.svc.FindByCode(context.Background(), staff, "ZZZ999")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestFindByCode_DeletedProductNotServedFromCache(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Coded", "AAA111", "BBB222")
	_, err := f.svc.FindByCode(context.Background(), staff, "AAA111")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), staff, p.ID))

	_, err = f.svc.FindByCode(context.Background(), staff, "AAA111")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
