package scrape

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/evidence-cli/internal/model"
)

// Fetcher retrieves one source record by portal id.
type Fetcher interface {
	FetchRecord(ctx context.Context, id int) (*model.SourceRecord, error)
}

// Store is the records file the scraper appends to.
type Store interface {
	Records() []model.SourceRecord
	Append(rec model.SourceRecord) error
}

// Failure describes an id that could not be fetched.
type Failure struct {
	ID  int
	Err error
}

// Scraper fetches ids not yet present in the store and appends each record as
// soon as it arrives.
type Scraper struct {
	fetcher   Fetcher
	store     Store
	onFailure func(Failure)
}

// NewScraper creates a Scraper. onFailure may be nil.
func NewScraper(fetcher Fetcher, store Store, onFailure func(Failure)) *Scraper {
	return &Scraper{fetcher: fetcher, store: store, onFailure: onFailure}
}

// Run fetches every id in order. Per-id failures are logged and counted; the
// returned error is non-nil only when the store cannot be written or ctx is
// done.
func (s *Scraper) Run(ctx context.Context, ids []int) (*model.RunSummary, error) {
	start := time.Now()
	sum := &model.RunSummary{Stage: model.StageScrape, Total: len(ids)}
	defer func() { sum.DurationMs = time.Since(start).Milliseconds() }()

	done := make(map[string]bool)
	for _, rec := range s.store.Records() {
		if id := rec.SourceID(); id != "" {
			done[id] = true
		}
	}
	seen := make(map[int]bool)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "scrape: interrupted")
		}
		if seen[id] {
			sum.Duplicates++
			continue
		}
		seen[id] = true
		if done[strconv.Itoa(id)] {
			sum.AlreadyDone++
			continue
		}

		sum.Submitted++
		rec, err := s.fetcher.FetchRecord(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return sum, eris.Wrap(ctx.Err(), "scrape: interrupted")
			}
			sum.Failed++
			zap.L().Warn("record fetch failed", zap.Int("id", id), zap.Error(err))
			if s.onFailure != nil {
				s.onFailure(Failure{ID: id, Err: err})
			}
			continue
		}

		if err := s.store.Append(*rec); err != nil {
			return sum, eris.Wrapf(err, "scrape: persist %d", id)
		}
		sum.Completed++
		if _, ok := rec.AbstractText(); !ok {
			sum.Warnings++
		}
		zap.L().Info("record fetched", zap.Int("id", id), zap.String("title", truncate(rec.Title, 80)))
	}

	zap.L().Info("scrape finished",
		zap.Int("completed", sum.Completed),
		zap.Int("already_done", sum.AlreadyDone),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
