// Package convert runs the two conversions of topodraw end to end.
//
// [Runner.Draw] turns topology YAML into a draw.io document:
//
//	YAML → topology.Graph → levels.Assignment → drawio.Build → XML
//
// with the Grafana flow panel and dashboard as optional extra outputs.
// [Runner.Extract] goes the other way:
//
//	XML → drawio.Parse → topology.Graph → YAML
//
// Both take the source bytes and return the complete output in memory or
// a structured error; nothing touches the filesystem. The CLI and the HTTP
// API share one Runner so they behave the same.
//
// # Usage
//
//	runner := convert.NewRunner(cache, nil, logger)
//	res, err := runner.Draw(ctx, src, convert.DrawOptions{Axis: style.Horizontal})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(res.Diagram)
package convert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/observability"
)

// Runner executes conversions with optional result caching.
//
// The Runner holds no per-conversion state; it is safe for concurrent use
// as long as its Cache is.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects [cache.DefaultKeyer] and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// load fetches and decodes a cache entry. Unreadable entries count as
// misses so a bad entry is simply recomputed.
func (r *Runner) load(ctx context.Context, kind, key string, v any) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.Logger.Debug("discarding cache entry", "key", key, "err", err)
		observability.Cache().OnCacheMiss(ctx, kind)
		return false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return true
}

// store writes a cache entry. Failures are logged, never returned: the
// conversion itself succeeded.
func (r *Runner) store(ctx context.Context, kind, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		r.Logger.Debug("cache encode failed", "key", key, "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}
