package engine

import (
	"go.uber.org/zap"

	"bgeval-api/internal/eval"
	"bgeval-api/internal/met"
)

// Engine evaluates backgammon positions. It is safe for concurrent use:
// the model is read-only after construction and the cache synchronizes
// internally.
type Engine struct {
	model       eval.Model
	met         *met.Table
	cache       *Cache
	parallelism int
	log         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel replaces the default heuristic model.
func WithModel(m eval.Model) Option {
	return func(e *Engine) { e.model = m }
}

// WithMatchEquityTable replaces the default match equity table.
func WithMatchEquityTable(t *met.Table) Option {
	return func(e *Engine) { e.met = t }
}

// WithCacheSize sets the evaluation cache capacity in entries. Zero
// disables caching.
func WithCacheSize(n uint32) Option {
	return func(e *Engine) {
		if n == 0 {
			e.cache = nil
		} else {
			e.cache = NewCache(n)
		}
	}
}

// WithParallelism bounds the number of concurrent evaluation goroutines
// used by multi-ply search.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithLogger attaches a logger for debug-level evaluation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// DefaultCacheSize is the evaluation cache capacity when not configured.
const DefaultCacheSize = 1 << 19

// New builds an engine with the heuristic model, the default match equity
// table and a moderately sized cache.
func New(opts ...Option) *Engine {
	e := &Engine{
		model:       eval.NewHeuristicModel(),
		met:         met.Default(),
		cache:       NewCache(DefaultCacheSize),
		parallelism: 4,
		log:         zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Cache returns the evaluation cache, or nil when disabled.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Ready reports whether the engine can evaluate positions.
func (e *Engine) Ready() bool {
	return e.model != nil
}
