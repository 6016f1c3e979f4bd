package dataprocessing

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// DatasetCache memoizes successful loads by source id for the life of the process.
// Failed loads are not cached, so a source that appears later is picked up.
type DatasetCache struct {
	reader  SourceReader
	logger  *slog.Logger
	metrics *infrastructure.EngineMetrics

	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
	group    singleflight.Group
}

// NewDatasetCache wraps a reader
func NewDatasetCache(reader SourceReader, logger *slog.Logger, metrics *infrastructure.EngineMetrics) *DatasetCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetCache{
		reader:   reader,
		logger:   logger.With(slog.String("component", "dataset_cache")),
		metrics:  metrics,
		datasets: make(map[string]*domain.Dataset),
	}
}

// Load implements SourceReader
func (c *DatasetCache) Load(ctx context.Context, id string) domain.Result[*domain.Dataset] {
	return c.Get(ctx, id)
}

// Get returns the cached dataset or loads it. Concurrent first loads of the same
// source share one read.
func (c *DatasetCache) Get(ctx context.Context, id string) domain.Result[*domain.Dataset] {
	c.mu.RLock()
	ds, ok := c.datasets[id]
	c.mu.RUnlock()
	if ok {
		c.metrics.RecordCache(ctx, id, true)
		return domain.OK(ds)
	}
	c.metrics.RecordCache(ctx, id, false)

	v, _, _ := c.group.Do(id, func() (interface{}, error) {
		res := c.reader.Load(ctx, id)
		if res.Clean() {
			c.mu.Lock()
			c.datasets[id] = res.Value
			c.mu.Unlock()
		}
		return res, nil
	})
	return v.(domain.Result[*domain.Dataset])
}

// Preload warms the cache concurrently and returns the diagnostics per source.
// It only fails when ctx is cancelled.
func (c *DatasetCache) Preload(ctx context.Context, ids ...string) (map[string]domain.Diagnostics, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	report := make(map[string]domain.Diagnostics, len(ids))

	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := c.Get(gctx, id)
			if !res.Clean() {
				mu.Lock()
				report[id] = res.Diagnostics
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	c.logger.InfoContext(ctx, "Sources preloaded",
		slog.Int("requested", len(ids)),
		slog.Int("unavailable", len(report)))
	return report, nil
}

// Cached reports whether a source is in the cache
func (c *DatasetCache) Cached(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.datasets[id]
	return ok
}

// Len returns the number of cached sources
func (c *DatasetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.datasets)
}
