package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"estate_listing/internal/domain"
)

// ImportItem is one listing to import on behalf of its owner.
type ImportItem struct {
	UserRef string `json:"userRef"`
	domain.ListingDraft
}

type ImportReport struct {
	Created int64
	Failed  int64
}

type Importer struct {
	listings *ListingService
	workers  int
}

func NewImporter(l *ListingService, workers int) *Importer {
	if workers <= 0 {
		workers = 1
	}
	return &Importer{listings: l, workers: workers}
}

// Run creates every item with at most workers in flight. A failing item is logged
// and counted; it does not stop the others.
func (im *Importer) Run(ctx context.Context, items []ImportItem) (ImportReport, error) {
	sem := semaphore.NewWeighted(int64(im.workers))
	var (
		wg              sync.WaitGroup
		created, failed atomic.Int64
	)

	for i, it := range items {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return ImportReport{Created: created.Load(), Failed: failed.Load()}, err
		}

		wg.Add(1)
		go func(idx int, it ImportItem) {
			defer wg.Done()
			defer sem.Release(1)

			l, err := im.listings.Create(ctx, it.UserRef, it.ListingDraft)
			if err != nil {
				failed.Add(1)
				log.Warn().Int("index", idx).Str("name", it.Name).Err(err).Msg("import failed")
				return
			}
			created.Add(1)
			log.Info().Int("index", idx).Str("id", l.ID).Msg("import ok")
		}(i, it)
	}

	wg.Wait()
	return ImportReport{Created: created.Load(), Failed: failed.Load()}, nil
}
