package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"reading-effort/internal/common/config"
	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/metrics"
)

// Provider hands out the process-wide reference dataset.
type Provider interface {
	// Dataset returns the loaded table, loading it on first use.
	Dataset(ctx context.Context) (*Table, error)
	// Source identifies where the data comes from; it keys cached results.
	Source() string
}

// LoadFunc produces the table from its backing store.
type LoadFunc func(ctx context.Context) (*Table, error)

// LazyProvider loads its table at most once successfully. Concurrent first
// callers wait on the same load; a failed load is reported to its callers
// and attempted again by the next one.
type LazyProvider struct {
	source string
	load   LoadFunc
	log    logger.Logger

	mu    sync.Mutex
	table atomic.Pointer[Table]
}

func NewLazyProvider(source string, load LoadFunc, log logger.Logger) *LazyProvider {
	return &LazyProvider{
		source: source,
		load:   load,
		log:    log.WithFields(map[string]interface{}{"dataset": source}),
	}
}

func (p *LazyProvider) Source() string { return p.source }

// Ready reports whether the table has been loaded.
func (p *LazyProvider) Ready() bool { return p.table.Load() != nil }

func (p *LazyProvider) Dataset(ctx context.Context) (*Table, error) {
	if t := p.table.Load(); t != nil {
		return t, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.table.Load(); t != nil {
		return t, nil
	}

	start := time.Now()
	t, err := p.load(ctx)
	if err != nil {
		metrics.DatasetLoads.WithLabelValues(p.source, "failure").Inc()
		p.log.Error("Reference dataset load failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewDatasetUnavailableError(p.source, err)
	}

	p.table.Store(t)
	metrics.DatasetLoads.WithLabelValues(p.source, "success").Inc()
	metrics.DatasetRows.Set(float64(t.Len()))
	p.log.Info("Reference dataset loaded", map[string]interface{}{
		"rows":     t.Len(),
		"columns":  len(t.Columns()),
		"duration": time.Since(start).String(),
	})
	return t, nil
}

// StaticProvider serves a fixed table.
type StaticProvider struct {
	table  *Table
	source string
}

func NewStaticProvider(source string, t *Table) *StaticProvider {
	return &StaticProvider{table: t, source: source}
}

func (p *StaticProvider) Dataset(context.Context) (*Table, error) {
	if p.table == nil {
		return nil, errors.NewDatasetUnavailableError(p.source, fmt.Errorf("no table configured"))
	}
	return p.table, nil
}

func (p *StaticProvider) Source() string { return p.source }

// NewFromConfig builds the lazy provider for the configured source. db is
// only consulted for the postgres source.
func NewFromConfig(cfg config.DatasetConfig, db *sql.DB, log logger.Logger) (*LazyProvider, error) {
	var (
		source string
		load   LoadFunc
	)
	switch cfg.Source {
	case config.SourceCSV, "":
		source = "csv:" + cfg.Path
		load = func(context.Context) (*Table, error) { return LoadCSV(cfg.Path, cfg.DelimiterRune()) }
	case config.SourceSQLite:
		source = "sqlite:" + cfg.Path + "#" + cfg.Table
		load = func(ctx context.Context) (*Table, error) { return LoadSQLite(ctx, cfg.Path, cfg.Table) }
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres dataset source needs a database connection")
		}
		source = "postgres:" + cfg.Table
		load = func(ctx context.Context) (*Table, error) { return LoadPostgres(ctx, db, cfg.Table) }
	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.Source)
	}
	return NewLazyProvider(source, load, log), nil
}
