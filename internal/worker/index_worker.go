package worker

// index_worker.go
// Processes QueueIndex jobs: keeps the text index in step with catalog writes
// when SEARCH_SYNC_MODE=queue.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BulizzesRG/myownpos/internal/search"
)

type IndexWorker struct {
	index search.Index
}

func NewIndexWorker(index search.Index) *IndexWorker {
	return &IndexWorker{index: index}
}

func (w *IndexWorker) Process(ctx context.Context, job Job) error {
	switch job.Type {
	case JobIndexUpsert:
		var doc search.Document
		if err := json.Unmarshal(job.Payload, &doc); err != nil {
			return fmt.Errorf("index_worker: invalid payload: %w", err)
		}
		return w.index.Upsert(ctx, doc)
	case JobIndexRemove:
		var p IndexRemovePayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return fmt.Errorf("index_worker: invalid payload: %w", err)
		}
		return w.index.Remove(ctx, p.ID)
	default:
		return fmt.Errorf("index_worker: unexpected job type %q", job.Type)
	}
}
