package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BulizzesRG/myownpos/internal/apierror"
	"github.com/BulizzesRG/myownpos/internal/dto"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/repository"
	"github.com/BulizzesRG/myownpos/internal/search"

	"github.com/rs/zerolog/log"
)

var errNoIndex = errors.New("search index not configured")

// ListMode selects how List builds the ordered product sequence.
type ListMode int

const (
	// ModeBrowse orders live products by id ascending.
	ModeBrowse ListMode = iota
	// ModeSearch orders matches by text-index relevance.
	ModeSearch
)

func (m ListMode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "browse"
}

type ListQuery struct {
	Mode  ListMode
	Query string
	Page  dto.PageRequest
}

// NewListQuery picks ModeSearch for a non-blank filter and normalizes paging.
func NewListQuery(filter string, size, number int) ListQuery {
	q := ListQuery{Page: dto.PageRequest{Size: size, Number: number}.Normalize()}
	if f := strings.TrimSpace(filter); f != "" {
		q.Mode = ModeSearch
		q.Query = f
	}
	return q
}

// CatalogService is the read side of the catalog. Both modes share one
// pagination contract: page N of size S holds items (N-1)*S+1 .. N*S of the
// mode's ordering.
type CatalogService interface {
	Get(ctx context.Context, actor Actor, id uint) (*dto.ProductResponse, error)
	List(ctx context.Context, actor Actor, q ListQuery) (*dto.ProductPage, error)
}

type catalogService struct {
	repo    repository.ProductRepository
	index   search.Index
	breaker *infra.CircuitBreaker
	timeout time.Duration
}

func NewCatalogService(
	repo repository.ProductRepository,
	index search.Index,
	breaker *infra.CircuitBreaker,
	timeout time.Duration,
) CatalogService {
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.DefaultCBConfig("search"))
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &catalogService{repo: repo, index: index, breaker: breaker, timeout: timeout}
}

func (s *catalogService) Get(ctx context.Context, actor Actor, id uint) (*dto.ProductResponse, error) {
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

func (s *catalogService) List(ctx context.Context, actor Actor, q ListQuery) (*dto.ProductPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	page := q.Page.Normalize()

	var (
		products []model.Product
		total    int64
		err      error
	)
	switch q.Mode {
	case ModeSearch:
		products, total, err = s.search(ctx, q.Query, page)
	default:
		products, total, err = s.repo.List(ctx, page.Offset(), page.Size)
	}
	if err != nil {
		return nil, err
	}

	return &dto.ProductPage{
		Data: dto.NewProductResponses(products),
		Meta: dto.NewPageMeta(page, total),
	}, nil
}

// search asks the index for ranked ids, drops ids of products deleted since
// indexing, slices the requested page and loads it in rank order.
func (s *catalogService) search(ctx context.Context, query string, page dto.PageRequest) ([]model.Product, int64, error) {
	if s.index == nil {
		return nil, 0, apierror.Dependency("search", errNoIndex)
	}

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var ranked []uint
	err := s.breaker.Execute(sctx, func(ctx context.Context) error {
		var err error
		ranked, err = s.index.Search(ctx, query)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("query", query).Str("breaker", s.breaker.State().String()).Msg("search unavailable")
		return nil, 0, apierror.Dependency("search", err)
	}

	live, err := s.repo.LiveIDs(ctx, ranked)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(live))

	start := page.Offset()
	if start < 0 || start >= len(live) {
		return []model.Product{}, total, nil
	}
	end := min(start+page.Size, len(live))
	pageIDs := live[start:end]

	found, err := s.repo.FindByIDs(ctx, pageIDs)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]model.Product, 0, len(pageIDs))
	for _, id := range pageIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, total, nil
}
