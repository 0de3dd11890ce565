package service

import (
	"context"

	"github.com/BulizzesRG/myownpos/internal/model"
	"github.com/BulizzesRG/myownpos/internal/search"

	"github.com/rs/zerolog/log"
)

// Indexer keeps the text index in step with product writes. Sync failures
// never fail the write that triggered them; they are logged and the next write
// of the same product repairs the document.
type Indexer interface {
	Index(ctx context.Context, p *model.Product)
	Unindex(ctx context.Context, id uint)
}

// IndexQueue hands index maintenance to the background worker pool.
type IndexQueue interface {
	EnqueueIndexUpsert(ctx context.Context, doc search.Document) error
	EnqueueIndexRemove(ctx context.Context, id uint) error
}

type syncIndexer struct{ index search.Index }

// NewSyncIndexer updates the index inline, within the request. A nil index
// yields an Indexer that does nothing.
func NewSyncIndexer(index search.Index) Indexer {
	if index == nil {
		return noopIndexer{}
	}
	return &syncIndexer{index: index}
}

type noopIndexer struct{}

func (noopIndexer) Index(context.Context, *model.Product) {}
func (noopIndexer) Unindex(context.Context, uint)         {}

func (i *syncIndexer) Index(ctx context.Context, p *model.Product) {
	if err := i.index.Upsert(ctx, search.NewDocument(p)); err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("search: upsert failed")
	}
}

func (i *syncIndexer) Unindex(ctx context.Context, id uint) {
	if err := i.index.Remove(ctx, id); err != nil {
		log.Error().Err(err).Uint("product_id", id).Msg("search: remove failed")
	}
}

type queuedIndexer struct{ queue IndexQueue }

// NewQueuedIndexer defers index updates to the worker pool.
func NewQueuedIndexer(queue IndexQueue) Indexer { return &queuedIndexer{queue: queue} }

func (i *queuedIndexer) Index(ctx context.Context, p *model.Product) {
	if err := i.queue.EnqueueIndexUpsert(ctx, search.NewDocument(p)); err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("search: enqueue upsert failed")
	}
}

func (i *queuedIndexer) Unindex(ctx context.Context, id uint) {
	if err := i.queue.EnqueueIndexRemove(ctx, id); err != nil {
		log.Error().Err(err).Uint("product_id", id).Msg("search: enqueue remove failed")
	}
}
