package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(purchase, sale string) dto.Payload {
	return dto.Payload{"purchase_price": json.Number(purchase), "sale_price": json.Number(sale)}
}

func TestUpdatePrice_RecordsPreviousPrices(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")

	got, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("12.00", "18.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.IntPurchasePrice)
	assert.Equal(t, int64(1800), got.IntSalePrice)

	page, err := f.prices.History(context.Background(), staff, p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	h := page.Data[0]
	assert.Equal(t, 10.0, h.PurchasePrice)
	assert.Equal(t, 15.0, h.SalePrice)
	assert.Equal(t, h.PurchasePrice, h.SystemPurchasePrice)
	assert.Equal(t, staff.UserID, h.UserID)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(h.Information, &snapshot))
	assert.Equal(t, "AAA111", snapshot["barcode"])
	assert.Equal(t, "Audited", snapshot["description"])

	stored, err := f.svc.FindByID(context.Background(), staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), stored.IntSalePrice)
}

func TestUpdatePrice_EachSuccessAddsOneRecord(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")

	for _, sale := range []string{"16", "17", "18"} {
		_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("10", sale))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, f.historyCount(t, p.ID))

	page, err := f.prices.History(context.Background(), staff, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 17.0, page.Data[0].SalePrice, "newest first: record of the last change holds the price before it")
}

func TestUpdatePrice_BelowMinimumWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")

	_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("0.01", "15.00"))

	assert.Equal(t, map[string][]string{"purchase_price": {"must be at least 0.20"}}, fieldsOf(t, err))
	assert.Zero(t, f.historyCount(t, p.ID))
	stored, err := f.svc.FindByID(context.Background(), staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.IntPurchasePrice)
}

func TestUpdatePrice_MissingPrices(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")

	_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, dto.Payload{})
	assert.Equal(t, map[string][]string{
		"purchase_price": {"is required"},
		"sale_price":     {"is required"},
	}, fieldsOf(t, err))
}

func TestUpdatePrice_SaleBelowPurchaseIsAllowed(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Loss leader", "AAA111", "BBB222")

	_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("20", "5"))
	require.NoError(t, err)
}

func TestUpdatePrice_HistoryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")
	svc := service.NewPriceService(f.products, failingHistoryRepo{f.history}, nil, nil)

	_, err := svc.UpdatePrice(context.Background(), staff, p.ID, prices("12", "18"))
	require.Error(t, err)

	stored, err := f.svc.FindByID(context.Background(), staff, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stored.IntSalePrice)
}

func TestUpdatePrice_PriceWriteFailureDropsHistory(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")
	svc := service.NewPriceService(failingPriceWriteRepo{f.products}, f.history, nil, nil)

	_, err := svc.UpdatePrice(context.Background(), staff, p.ID, prices("12", "18"))
	require.Error(t, err)
	assert.Zero(t, f.historyCount(t, p.ID))
}

func TestUpdatePrice_RoundsToCents(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")

	got, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("10.555", "18.004"))
	require.NoError(t, err)
	assert.Equal(t, 10.56, got.PurchasePrice)
	assert.Equal(t, 18.0, got.SalePrice)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, 10.56, f.notifier.events[0].NewPurchasePrice)
	assert.Equal(t, 18.0, f.notifier.events[0].NewSalePrice)
}

func TestUpdatePrice_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.prices.UpdatePrice(context.Background(), staff, 99, prices("0.01", "1"))
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestUpdatePrice_NotifiesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")
	f.cache.entries["AAA111"] = *p

	_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("12", "18"))
	require.NoError(t, err)

	assert.NotContains(t, f.cache.entries, "AAA111")
	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, p.ID, ev.ProductID)
	assert.Equal(t, 15.0, ev.OldSalePrice)
	assert.Equal(t, 18.0, ev.NewSalePrice)
}

func TestHistory_SurvivesDelete(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "Audited", "AAA111", "BBB222")
	_, err := f.prices.UpdatePrice(context.Background(), staff, p.ID, prices("12", "18"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), staff, p.ID))

	page, err := f.prices.History(context.Background(), staff, p.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	report, err := f.prices.HistoryReport(context.Background(), staff, p.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(report, []byte("%PDF")))
}

func TestHistory_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.prices.History(context.Background(), staff, 12345, 1, 10)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
