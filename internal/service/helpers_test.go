package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/search"
	"github.com/BulizzesRG/myownpos/internal/service"
	"github.com/BulizzesRG/myownpos/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var staff = service.Actor{UserID: 1, Email: "admin@pos.test"}

// ── In-memory search.Index stub ──────────────────────────────────────────────

type stubIndex struct {
	mu   sync.Mutex
	docs map[uint]search.Document
	err  error
	// ranked, when set, is returned by Search regardless of the query.
	ranked []uint
}

var _ search.Index = (*stubIndex)(nil)

func newStubIndex() *stubIndex { return &stubIndex{docs: map[uint]search.Document{}} }

func (x *stubIndex) Upsert(_ context.Context, doc search.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[doc.ID] = doc
	return nil
}

func (x *stubIndex) Remove(_ context.Context, id uint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

func (x *stubIndex) Search(ctx context.Context, query string) ([]uint, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.err != nil {
		return nil, x.err
	}
	if x.ranked != nil {
		return x.ranked, nil
	}
	scores := map[uint]int{}
	for id, doc := range x.docs {
		_, prefixes := search.Terms(doc)
		for _, tok := range search.Tokenize(query) {
			for _, p := range prefixes {
				if p == tok {
					scores[id]++
					break
				}
			}
		}
	}
	var ids []uint
	for id, s := range scores {
		if s > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids, nil
}

func (x *stubIndex) has(id uint) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.docs[id]
	return ok
}

// blockingIndex waits for the caller's deadline.
type blockingIndex struct{ stubIndex }

func (x *blockingIndex) Search(ctx context.Context, _ string) ([]uint, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ── In-memory ProductCache stub ──────────────────────────────────────────────

type stubCache struct {
	entries     map[string]dto.ProductResponse
	invalidated []string
}

var _ service.ProductCache = (*stubCache)(nil)

func newStubCache() *stubCache { return &stubCache{entries: map[string]dto.ProductResponse{}} }

func (c *stubCache) Get(_ context.Context, code string) (*dto.ProductResponse, bool) {
	p, ok := c.entries[code]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *stubCache) Set(_ context.Context, code string, p dto.ProductResponse) { c.entries[code] = p }

func (c *stubCache) Invalidate(_ context.Context, codes ...string) {
	for _, code := range codes {
		delete(c.entries, code)
		c.invalidated = append(c.invalidated, code)
	}
}

// ── PriceChangeQueue stub ────────────────────────────────────────────────────

type stubNotifier struct{ events []dto.PriceChangedEvent }

func (n *stubNotifier) EnqueuePriceChanged(_ context.Context, ev dto.PriceChangedEvent) error {
	n.events = append(n.events, ev)
	return nil
}

// ── Failure injection ────────────────────────────────────────────────────────

type failingHistoryRepo struct{ repository.PriceHistoryRepository }

func (failingHistoryRepo) CreateTx(*gorm.DB, *model.PriceHistory) error {
	return errors.New("disk full")
}

type failingPriceWriteRepo struct{ repository.ProductRepository }

func (failingPriceWriteRepo) UpdatePricesTx(*gorm.DB, uint, decimal.Decimal, decimal.Decimal) error {
	return errors.New("deadlock detected")
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	db       *gorm.DB
	products repository.ProductRepository
	history  repository.PriceHistoryRepository
	index    *stubIndex
	cache    *stubCache
	notifier *stubNotifier
	svc      service.ProductService
	prices   service.PriceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		products: repository.NewProductRepository(db),
		history:  repository.NewPriceHistoryRepository(db),
		index:    newStubIndex(),
		cache:    newStubCache(),
		notifier: &stubNotifier{},
	}
	f.svc = service.NewProductService(f.products, f.history, service.NewSyncIndexer(f.index), f.cache)
	f.prices = service.NewPriceService(f.products, f.history, f.cache, f.notifier)
	return f
}

func productPayload(description, barcode, alt, purchase, sale string) dto.Payload {
	return dto.Payload{
		"description":      description,
		"barcode":          barcode,
		"alternative_code": alt,
		"purchase_price":   json.Number(purchase),
		"sale_price":       json.Number(sale),
		"format_of_sell":   "piece",
	}
}

func (f *fixture) create(t *testing.T, description, barcode, alt string) *dto.ProductResponse {
	t.Helper()
	p, err := f.svc.Create(context.Background(), staff, productPayload(description, barcode, alt, "10.00", "15.00"))
	require.NoError(t, err)
	return p
}

func (f *fixture) seed(t *testing.T, n int) []*dto.ProductResponse {
	t.Helper()
	out := make([]*dto.ProductResponse, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.create(t, fmt.Sprintf("Product number %d", i), fmt.Sprintf("BAR%03d", i), fmt.Sprintf("ALT%03d", i)))
	}
	return out
}

func (f *fixture) historyCount(t *testing.T, productID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.PriceHistory{}).Where("product_id = ?", productID).Count(&n).Error)
	return n
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}
