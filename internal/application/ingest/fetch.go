package ingest

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize caps how many objects one fan-out processes before its
// decoded rows are flushed downstream, bounding peak memory.
const DefaultBatchSize = 64

// maxConcurrency caps the worker pool regardless of core count, mostly to
// stay clear of S3 request throttling.
const maxConcurrency = 32

// DefaultConcurrency returns the fetch worker count used when the caller
// does not override it.
func DefaultConcurrency() int {
	c := 2 * runtime.GOMAXPROCS(0)
	if c > maxConcurrency {
		return maxConcurrency
	}
	return c
}

// Outcome is the per-object result of a fetch: either a readable local path
// or a recorded error. One failed object never aborts its batch.
type Outcome struct {
	Object    entity.ObjectRef
	LocalPath string
	Temp      bool // open-period download; caller removes after use
	CacheHit  bool
	Persisted bool // written under the cache root this run
	Err       error
}

// FetchOrchestrator downloads objects through the cache with a bounded
// worker pool. Each worker owns its own fetch session; the cache store is
// the only state shared across workers.
type FetchOrchestrator struct {
	storage     repository.StorageRepository
	cache       *CacheStore
	concurrency int
	batchSize   int
	now         func() time.Time
	logger      *zap.Logger
}

// NewFetchOrchestrator wires a pool over storage and cache. Zero values for
// concurrency and batchSize take the defaults; now defaults to time.Now.
func NewFetchOrchestrator(storage repository.StorageRepository, cache *CacheStore, concurrency, batchSize int, now func() time.Time, logger *zap.Logger) *FetchOrchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchOrchestrator{
		storage:     storage,
		cache:       cache,
		concurrency: concurrency,
		batchSize:   batchSize,
		now:         now,
		logger:      logger,
	}
}

// FetchAll resolves every object to a local file or a recorded failure.
// Oversized inputs are processed in sequential sub-batches so the caller can
// drain each batch's rows before the next one starts; onBatch receives the
// outcomes of every completed sub-batch.
func (f *FetchOrchestrator) FetchAll(ctx context.Context, objects []entity.ObjectRef, onBatch func([]Outcome)) {
	for start := 0; start < len(objects); start += f.batchSize {
		end := start + f.batchSize
		if end > len(objects) {
			end = len(objects)
		}
		batch := objects[start:end]

		outcomes := f.fetchBatch(ctx, batch)

		// A batch where every object failed identically usually means pooled
		// session setup broke, not the objects themselves. Decompose into
		// per-object fetches with fresh sessions so failures are attributed
		// individually; each per-object failure then follows the normal
		// recovered path.
		if len(batch) > 1 && allFailed(outcomes) && ctx.Err() == nil {
			f.logger.Warn("whole batch failed, retrying objects individually",
				zap.Int("objects", len(batch)))
			outcomes = f.fetchSequential(ctx, batch)
		}

		onBatch(outcomes)
	}
}

func (f *FetchOrchestrator) fetchBatch(ctx context.Context, batch []entity.ObjectRef) []Outcome {
	workers := f.concurrency
	if workers > len(batch) {
		workers = len(batch)
	}

	jobs := make(chan entity.ObjectRef)
	results := make(chan Outcome, len(batch))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			fetcher, err := f.storage.NewFetcher(ctx)
			if err != nil {
				// The worker still drains its share so the feeder never blocks.
				for ref := range jobs {
					results <- Outcome{Object: ref, Err: fmt.Errorf("opening fetch session: %w", err)}
				}
				return nil
			}
			for ref := range jobs {
				results <- f.fetchOne(ctx, fetcher, ref)
			}
			return nil
		})
	}

	fed := 0
feed:
	for _, ref := range batch {
		select {
		case jobs <- ref:
			fed++
		case <-ctx.Done():
			// Abandon outstanding work, best effort. Objects already fetched
			// stay in the result; the unfed rest are recorded as canceled.
			break feed
		}
	}
	close(jobs)
	g.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(batch))
	for o := range results {
		outcomes = append(outcomes, o)
	}
	for _, ref := range batch[fed:] {
		outcomes = append(outcomes, Outcome{Object: ref, Err: ctx.Err()})
	}
	return outcomes
}

// fetchSequential is the decomposed fallback tier: one object at a time,
// each with its own fresh session.
func (f *FetchOrchestrator) fetchSequential(ctx context.Context, batch []entity.ObjectRef) []Outcome {
	outcomes := make([]Outcome, 0, len(batch))
	for _, ref := range batch {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{Object: ref, Err: ctx.Err()})
			continue
		}
		fetcher, err := f.storage.NewFetcher(ctx)
		if err != nil {
			outcomes = append(outcomes, Outcome{Object: ref, Err: fmt.Errorf("opening fetch session: %w", err)})
			continue
		}
		outcomes = append(outcomes, f.fetchOne(ctx, fetcher, ref))
	}
	return outcomes
}

func (f *FetchOrchestrator) fetchOne(ctx context.Context, fetcher repository.ObjectFetcher, ref entity.ObjectRef) Outcome {
	period := ParseBillingPeriod(ref.Key)
	closed := IsClosedPeriod(period, f.now())

	if closed {
		if path, ok := f.cache.Get(ref); ok {
			f.logger.Debug("cache hit", zap.String("key", ref.Key))
			return Outcome{Object: ref, LocalPath: path, CacheHit: true}
		}
	}

	body, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return Outcome{Object: ref, Err: fmt.Errorf("fetching s3://%s/%s: %w", ref.Bucket, ref.Key, err)}
	}
	defer body.Close()

	entry, err := f.cache.Put(ref, body, closed)
	if err != nil {
		return Outcome{Object: ref, Err: fmt.Errorf("storing s3://%s/%s: %w", ref.Bucket, ref.Key, err)}
	}

	return Outcome{
		Object:    ref,
		LocalPath: entry.LocalPath,
		Temp:      !entry.Persisted,
		Persisted: entry.Persisted,
	}
}

func allFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Err == nil {
			return false
		}
	}
	return len(outcomes) > 0
}
