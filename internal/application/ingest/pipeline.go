package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
	"go.uber.org/zap"
)

// Stage names one phase of a pipeline run, in strict execution order.
type Stage string

const (
	StageDiscovering   Stage = "discovering"
	StageFiltering     Stage = "filtering"
	StageFetching      Stage = "fetching"
	StageNormalizing   Stage = "normalizing"
	StageDeduplicating Stage = "deduplicating"
	StageReady         Stage = "ready"
	StageFailed        Stage = "failed"
)

// Options configures one pipeline. Every knob lives here rather than in
// process-wide state, so concurrent pipelines never interfere.
type Options struct {
	Bucket      string
	Prefix      string
	Window      *entity.BillingPeriod
	Concurrency int
	BatchSize   int
	SampleFiles int // cap on objects ingested, for testing
	MaxRows     int // cap on rows per file, for testing
	CacheDir    string
	CacheOff    bool
	SplitDedup  bool
	Logger      *zap.Logger
	Now         func() time.Time

	// OnStage and OnObjectDone feed progress display; both optional.
	OnStage      func(stage Stage)
	OnObjectDone func(done, total int)
}

// Result is what one pipeline run hands downstream: the deduplicated table
// and the manifest describing how it was produced.
type Result struct {
	Table    entity.CanonicalTable
	Manifest entity.IngestManifest
}

// Pipeline composes discovery, partition filtering, cached parallel fetch,
// schema normalization and identity dedupe into one call. Transitions are
// strictly sequential and non-resumable; retries happen per object inside
// the fetch stage, never at pipeline level.
type Pipeline struct {
	storage repository.StorageRepository
	cache   *CacheStore
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
	stage   Stage
}

// New builds a pipeline over the given storage. The cache root defaults to
// a .cur-cache directory under the user cache dir when unset.
func New(storage repository.StorageRepository, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	return &Pipeline{
		storage: storage,
		cache:   NewCacheStore(cacheDir, !opts.CacheOff, logger),
		opts:    opts,
		logger:  logger,
		now:     now,
	}
}

// Cache exposes the pipeline's cache store for clear/stats operations.
func (p *Pipeline) Cache() *CacheStore {
	return p.cache
}

// Stage returns the stage the last Run reached.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Run executes the full pipeline. A listing failure is fatal; everything
// past discovery degrades per object and surfaces in the manifest instead.
// Zero objects after filtering yields an empty result, not an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	var manifest entity.IngestManifest

	p.enter(StageDiscovering)
	objects, err := p.storage.ListObjects(ctx, p.opts.Bucket, p.opts.Prefix)
	if err != nil {
		p.stage = StageFailed
		return nil, fmt.Errorf("listing s3://%s/%s: %w", p.opts.Bucket, p.opts.Prefix, err)
	}
	manifest.TotalObjectsListed = len(objects)
	p.logger.Info("discovered objects",
		zap.Int("count", len(objects)),
		zap.String("bucket", p.opts.Bucket),
		zap.String("prefix", p.opts.Prefix))

	p.enter(StageFiltering)
	objects, skipped := FilterByPeriod(objects, p.opts.Window)
	manifest.ObjectsAfterPartitionFilter = len(objects)
	if skipped > 0 {
		p.logger.Info("partition filter skipped objects", zap.Int("skipped", skipped))
	}
	if p.opts.SampleFiles > 0 && len(objects) > p.opts.SampleFiles {
		p.logger.Info("sample mode", zap.Int("files", p.opts.SampleFiles))
		objects = objects[:p.opts.SampleFiles]
	}
	if len(objects) == 0 {
		manifest.Warn("no objects matched the requested window")
		p.stage = StageReady
		return &Result{Table: entity.CanonicalTable{}, Manifest: manifest}, nil
	}

	p.enter(StageFetching)
	orchestrator := NewFetchOrchestrator(
		p.storage, p.cache, p.opts.Concurrency, p.opts.BatchSize, p.now, p.logger)

	var table entity.CanonicalTable
	identitySeen := false
	done := 0
	total := len(objects)

	orchestrator.FetchAll(ctx, objects, func(outcomes []Outcome) {
		// Each sub-batch is drained into canonical records before the next
		// batch starts, capping peak memory.
		for _, outcome := range outcomes {
			done++
			if p.opts.OnObjectDone != nil {
				p.opts.OnObjectDone(done, total)
			}
			if outcome.Err != nil {
				manifest.FetchFailures = append(manifest.FetchFailures, entity.FetchFailure{
					Object:  outcome.Object,
					Kind:    failureKind(outcome.Err),
					Message: outcome.Err.Error(),
				})
				p.logger.Warn("skipping object",
					zap.String("key", outcome.Object.Key), zap.Error(outcome.Err))
				continue
			}
			if outcome.CacheHit {
				manifest.CacheHits++
			}
			if outcome.Persisted {
				manifest.CacheWrites++
			}
			if outcome.Temp {
				manifest.FreshUnwrittenDownloads++
			}

			records, hasIdentity, err := p.scanAndNormalize(ctx, outcome)
			if err != nil {
				manifest.FetchFailures = append(manifest.FetchFailures, entity.FetchFailure{
					Object:  outcome.Object,
					Kind:    entity.ErrorKindDecode,
					Message: err.Error(),
				})
				p.logger.Warn("skipping undecodable object",
					zap.String("key", outcome.Object.Key), zap.Error(err))
				continue
			}
			identitySeen = identitySeen || hasIdentity
			table = append(table, records...)
		}
	})

	p.enter(StageNormalizing) // per-batch normalization already ran above

	p.enter(StageDeduplicating)
	if identitySeen {
		deduped, removed := Dedupe(table)
		table = deduped
		manifest.DuplicatesRemoved = removed
		if removed > 0 {
			p.logger.Info("removed duplicate line items", zap.Int("count", removed))
		}
	} else if len(table) > 0 {
		manifest.Warn("no line item id column found in any file; skipping deduplication, totals may double count")
		p.logger.Warn("no identity column found, deduplication skipped")
	}
	if p.opts.SplitDedup {
		suppressed, count := SuppressSplitParents(table)
		table = suppressed
		manifest.SplitParentsSuppressed = count
	}

	if len(table) == 0 && len(manifest.FetchFailures) == 0 {
		manifest.Warn("no rows matched the requested window")
	}
	manifest.FinalRecordCount = len(table)

	p.stage = StageReady
	if p.opts.OnStage != nil {
		p.opts.OnStage(StageReady)
	}
	return &Result{Table: table, Manifest: manifest}, nil
}

// scanAndNormalize decodes one fetched file into canonical records and
// reports whether the file's schema carried a line item id column.
// Temp downloads are removed here, after use.
func (p *Pipeline) scanAndNormalize(ctx context.Context, outcome Outcome) ([]entity.CanonicalRecord, bool, error) {
	if outcome.Temp {
		defer os.Remove(outcome.LocalPath)
	}

	rows, columns, err := ScanFile(ctx, outcome.LocalPath, p.opts.MaxRows)
	if err != nil {
		return nil, false, err
	}

	colMap := ColumnMap(columns)
	_, hasIdentity := colMap[entity.FieldLineItemID]

	records := Normalize(rows, colMap)
	records = ProjectWindow(records, p.opts.Window)
	return records, hasIdentity, nil
}

func (p *Pipeline) enter(stage Stage) {
	p.stage = stage
	if p.opts.OnStage != nil {
		p.opts.OnStage(stage)
	}
}

func failureKind(err error) entity.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return entity.ErrorKindCanceled
	}
	return entity.ErrorKindFetch
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "cur-report-generator")
	}
	return filepath.Join(os.TempDir(), "cur-report-generator")
}
