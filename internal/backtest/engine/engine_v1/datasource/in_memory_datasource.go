package datasource

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// InMemoryDataSource keeps the whole bar series in memory.
// It either wraps another DataSource and loads it with Preload, or is built directly from bars.
// Bars are kept in feed order; ordering problems are left for the engine to report.
type InMemoryDataSource struct {
	underlying DataSource
	bars       []types.Bar
	preloaded  bool
	mu         sync.RWMutex
}

// NewInMemoryDataSource creates an InMemoryDataSource wrapping the given DataSource.
func NewInMemoryDataSource(underlying DataSource) *InMemoryDataSource {
	return &InMemoryDataSource{
		underlying: underlying,
		bars:       nil,
		preloaded:  false,
		mu:         sync.RWMutex{},
	}
}

// NewInMemoryDataSourceFromBars creates an already loaded InMemoryDataSource.
func NewInMemoryDataSourceFromBars(bars []types.Bar) *InMemoryDataSource {
	copied := make([]types.Bar, len(bars))
	copy(copied, bars)

	return &InMemoryDataSource{
		underlying: nil,
		bars:       copied,
		preloaded:  true,
		mu:         sync.RWMutex{},
	}
}

// Initialize implements DataSource by forwarding to the wrapped source.
func (ds *InMemoryDataSource) Initialize(path string) error {
	if ds.underlying == nil {
		return nil
	}

	return ds.underlying.Initialize(path)
}

// Preload reads every bar of the window from the wrapped source into memory.
func (ds *InMemoryDataSource) Preload(start optional.Option[time.Time], end optional.Option[time.Time]) error {
	if ds.underlying == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "in-memory data source has nothing to preload from")
	}

	var bars []types.Bar

	for bar, err := range ds.underlying.ReadAll(start, end) {
		if err != nil {
			return errors.Wrap(errors.ErrCodeDataNotFound, "failed to preload data", err)
		}

		bars = append(bars, bar)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.bars = bars
	ds.preloaded = true

	return nil
}

// IsPreloaded returns true once bars are held in memory.
func (ds *InMemoryDataSource) IsPreloaded() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.preloaded
}

// Bars returns a copy of the bars held in memory.
func (ds *InMemoryDataSource) Bars() []types.Bar {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	copied := make([]types.Bar, len(ds.bars))
	copy(copied, ds.bars)

	return copied
}

// ReadAll implements DataSource.
func (ds *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		ds.mu.RLock()
		defer ds.mu.RUnlock()

		if !ds.preloaded {
			yield(types.Bar{}, errors.New(errors.ErrCodeDataNotFound, "data has not been preloaded"))

			return
		}

		for _, bar := range ds.bars {
			if !inWindow(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.preloaded {
		return 0, errors.New(errors.ErrCodeDataNotFound, "data has not been preloaded")
	}

	count := 0

	for _, bar := range ds.bars {
		if inWindow(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource. The wrapped source is closed as well.
func (ds *InMemoryDataSource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.bars = nil
	ds.preloaded = false

	if ds.underlying != nil {
		return ds.underlying.Close()
	}

	return nil
}
