package covercache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/dmitrymomot/coverkit/pkg/async"
	"github.com/dmitrymomot/coverkit/pkg/cache"
	"github.com/dmitrymomot/coverkit/pkg/logger"
	"github.com/dmitrymomot/coverkit/pkg/resample"
)

// Renderable is a host image built from a resampled buffer.
// Release must free the underlying resources synchronously.
type Renderable interface {
	Release()
}

// Resampler produces the pixel buffer for a cache miss.
// *resample.Resampler satisfies it.
type Resampler interface {
	Resample(ctx context.Context, path string, maxSide int) (*resample.Buffer, error)
}

// Request describes one cover lookup.
type Request[K comparable, R Renderable] struct {
	ID       K
	Path     string
	Fallback R
	MaxSide  int
}

// Coordinator is a bounded cache of cover images keyed by item identity.
//
// Entries are evicted least recently used first once more than MaxCached are
// held, except for the active item, which is never evicted. All map, ledger
// and active-item mutations happen under a single mutex; resampling runs
// outside of it.
type Coordinator[K comparable, R Renderable] struct {
	mu        sync.Mutex
	entries   map[K]R
	ledger    *cache.Ledger[K]
	inflight  map[K]*flight[K, R]
	active    K
	hasActive bool
	closed    bool

	maxCached int
	factory   func(*resample.Buffer) (R, error)
	resampler Resampler
	fs        billy.Basic
	log       *slog.Logger
	onStore   func(K, R)
	onRelease func(K, R)
	stats     counters
}

// New creates a Coordinator that turns resampled buffers into images with factory.
// It panics if factory is nil.
func New[K comparable, R Renderable](factory func(*resample.Buffer) (R, error), opts ...Option) *Coordinator[K, R] {
	if factory == nil {
		panic("covercache: nil image factory")
	}

	o := &options{maxCached: DefaultMaxCached}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = osfs.Default
	}
	if o.resampler == nil {
		o.resampler = resample.New(o.fs)
	}
	if o.log == nil {
		o.log = logger.Discard()
	}

	return &Coordinator[K, R]{
		entries:   make(map[K]R),
		ledger:    cache.NewLedger[K](),
		inflight:  make(map[K]*flight[K, R]),
		maxCached: o.maxCached,
		factory:   factory,
		resampler: o.resampler,
		fs:        o.fs,
		log:       o.log.With(logger.Component("covercache")),
	}
}

// OnStore registers fn to run right after an image is cached for id,
// typically to set a back-reference on the item that owns the cover.
// Hooks run with the coordinator lock held and must not call back into it.
func (c *Coordinator[K, R]) OnStore(fn func(id K, img R)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStore = fn
}

// OnRelease registers fn to run before an image is released, so external
// references to it can be cleared first.
// Hooks run with the coordinator lock held and must not call back into it.
func (c *Coordinator[K, R]) OnRelease(fn func(id K, img R)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRelease = fn
}

// Get returns the cover for id.
//
// A cached cover resolves immediately and becomes the most recently used.
// An empty sourcePath, a missing source file, a done context or a closed
// coordinator resolve immediately to fallback. Otherwise the source is
// resampled in the background and the future resolves to the new image, or to
// fallback if anything fails. The future never carries an error.
//
// Concurrent misses for the same id share one resample. Each caller stops
// waiting when its own ctx is done and gets fallback; the shared resample is
// cancelled only once every caller waiting on it has gone.
func (c *Coordinator[K, R]) Get(ctx context.Context, id K, sourcePath string, fallback R, maxSide int) *async.Future[R] {
	if img, ok := c.Lookup(id); ok {
		return async.Resolved(img)
	}

	if sourcePath == "" || ctx.Err() != nil || c.isClosed() {
		return c.fallback(fallback)
	}

	if !c.exists(sourcePath) {
		c.log.DebugContext(ctx, "cover source missing", logger.ItemID(id), logger.Path(sourcePath))
		return c.fallback(fallback)
	}

	fl, cached := c.startOrJoin(ctx, Request[K, R]{ID: id, Path: sourcePath, Fallback: fallback, MaxSide: maxSide})
	if cached != nil {
		return cached
	}
	if fl == nil {
		return c.fallback(fallback)
	}

	return async.Async(ctx, fl, func(ctx context.Context, fl *flight[K, R]) (R, error) {
		img, err := fl.future.AwaitContext(ctx)
		if err != nil {
			c.leave(fl)
			c.stats.fallbacks.Add(1)
			return fallback, nil
		}
		return img, nil
	})
}

// Prefetch loads several covers concurrently and returns them in request order.
func (c *Coordinator[K, R]) Prefetch(ctx context.Context, reqs ...Request[K, R]) []R {
	futures := make([]*async.Future[R], len(reqs))
	for i, req := range reqs {
		futures[i] = c.Get(ctx, req.ID, req.Path, req.Fallback, req.MaxSide)
	}
	// Coordinator futures never fail.
	results, _ := async.WaitAll(futures...)
	return results
}

// Lookup returns the cached cover for id without loading anything.
// A hit refreshes the entry's recency.
func (c *Coordinator[K, R]) Lookup(id K) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.entries[id]
	if !ok {
		return img, false
	}
	c.ledger.Touch(id)
	c.stats.hits.Add(1)
	return img, true
}

// Contains reports whether id is cached, without touching its recency.
func (c *Coordinator[K, R]) Contains(id K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Evict drops and releases the cover for id, active or not.
// Returns false if it was not cached.
func (c *Coordinator[K, R]) Evict(id K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false
	}
	c.releaseLocked(id)
	c.stats.evictions.Add(1)
	c.mustBeConsistent()
	return true
}

// SetActive pins id: capacity enforcement will not evict it.
// Only one id is pinned at a time.
func (c *Coordinator[K, R]) SetActive(id K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = id
	c.hasActive = true
}

// ClearActive removes the pin.
func (c *Coordinator[K, R]) ClearActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero K
	c.active = zero
	c.hasActive = false
}

// Active returns the pinned id, if any.
func (c *Coordinator[K, R]) Active() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.hasActive
}

// Len returns the number of cached covers.
func (c *Coordinator[K, R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MaxCached returns the eviction threshold.
func (c *Coordinator[K, R]) MaxCached() int {
	return c.maxCached
}

func (c *Coordinator[K, R]) Stats() Stats {
	return c.stats.snapshot(c.Len())
}

// Close releases every cached cover. Loads still in flight release their
// result instead of caching it, and later calls to Get return the fallback.
// Close is idempotent.
func (c *Coordinator[K, R]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	n := 0
	for id := range c.ledger.Oldest() {
		c.releaseLocked(id)
		n++
	}
	var zero K
	c.active = zero
	c.hasActive = false
	c.mustBeConsistent()

	c.log.Debug("cover cache flushed", logger.Count("released", n))
	return nil
}

func (c *Coordinator[K, R]) fallback(img R) *async.Future[R] {
	c.stats.fallbacks.Add(1)
	return async.Resolved(img)
}

func (c *Coordinator[K, R]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator[K, R]) exists(path string) bool {
	info, err := c.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// flight is one load shared by every Get that missed on the same id.
// waiters is guarded by the coordinator lock.
type flight[K comparable, R Renderable] struct {
	req     Request[K, R]
	future  *async.Future[R]
	cancel  context.CancelFunc
	waiters int
}

// startOrJoin registers the caller as a waiter on the load for req.ID,
// starting one if needed. cached is set instead when the cover got cached
// since Get checked. Both are nil when the coordinator is closed.
func (c *Coordinator[K, R]) startOrJoin(ctx context.Context, req Request[K, R]) (fl *flight[K, R], cached *async.Future[R]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.entries[req.ID]; ok {
		c.ledger.Touch(req.ID)
		c.stats.hits.Add(1)
		return nil, async.Resolved(img)
	}
	if c.closed {
		return nil, nil
	}
	if fl, ok := c.inflight[req.ID]; ok {
		fl.waiters++
		c.stats.joined.Add(1)
		return fl, nil
	}

	c.stats.misses.Add(1)

	// The load keeps the caller's values but not its cancellation;
	// leave cancels it when the last waiter is gone.
	loadCtx, cancel := context.WithCancel(logger.WithAttrs(context.WithoutCancel(ctx), logger.ItemID(req.ID)))
	fl = &flight[K, R]{req: req, cancel: cancel, waiters: 1}
	c.inflight[req.ID] = fl
	fl.future = async.Async(loadCtx, fl, c.load)
	return fl, nil
}

// leave drops one waiter from fl. The last one out cancels the load and frees
// the in-flight slot, so a later Get starts afresh.
func (c *Coordinator[K, R]) leave(fl *flight[K, R]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[fl.req.ID] != fl {
		return
	}
	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	delete(c.inflight, fl.req.ID)
	fl.cancel()
}

// load resamples and commits one cover. It clears its in-flight slot unless
// leave already did.
func (c *Coordinator[K, R]) load(ctx context.Context, fl *flight[K, R]) (R, error) {
	defer fl.cancel()

	var zero R
	req := fl.req
	start := time.Now()

	buf, err := c.resampler.Resample(ctx, req.Path, req.MaxSide)
	var img R
	if err == nil {
		img, err = c.factory(buf)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[req.ID] == fl {
		delete(c.inflight, req.ID)
	}

	if err != nil {
		c.stats.failures.Add(1)
		c.logFailure(ctx, req, err)
		return zero, err
	}

	// Nothing is committed for a load abandoned by all of its waiters.
	if ctxErr := ctx.Err(); ctxErr != nil {
		img.Release()
		c.stats.failures.Add(1)
		return zero, errors.Join(resample.ErrCancelled, ctxErr)
	}
	if c.closed {
		img.Release()
		return zero, ErrClosed
	}
	if existing, ok := c.entries[req.ID]; ok {
		img.Release()
		c.ledger.Touch(req.ID)
		return existing, nil
	}

	c.entries[req.ID] = img
	if err := c.ledger.Insert(req.ID); err != nil {
		panic(errors.Join(ErrInconsistent, err))
	}
	if c.onStore != nil {
		c.onStore(req.ID, img)
	}
	evicted := c.enforce(req.ID)
	c.mustBeConsistent()

	c.log.DebugContext(ctx, "cover cached",
		logger.Size(buf.Width, buf.Height),
		logger.Duration(time.Since(start)),
		logger.Count("evicted", evicted),
	)
	return img, nil
}

// enforce evicts the oldest entries until at most maxCached remain, skipping
// the active item and the entry just committed. It stops when no removable
// candidate is left. Must be called with lock held.
func (c *Coordinator[K, R]) enforce(keep K) int {
	evicted := 0
	for id := range c.ledger.Oldest() {
		if c.ledger.Len() <= c.maxCached {
			break
		}
		if id == keep || (c.hasActive && id == c.active) {
			continue
		}
		c.releaseLocked(id)
		c.stats.evictions.Add(1)
		evicted++
	}
	return evicted
}

// Must be called with lock held.
func (c *Coordinator[K, R]) releaseLocked(id K) {
	img := c.entries[id]
	delete(c.entries, id)
	c.ledger.Remove(id)

	if c.onRelease != nil {
		c.onRelease(id, img)
	}
	img.Release()
}

// Must be called with lock held.
func (c *Coordinator[K, R]) mustBeConsistent() {
	if len(c.entries) != c.ledger.Len() {
		panic(fmt.Errorf("%w: %d entries, %d ledger ids", ErrInconsistent, len(c.entries), c.ledger.Len()))
	}
}

// consistency walks the whole ledger and checks it against the entry map.
func (c *Coordinator[K, R]) consistency() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) != c.ledger.Len() {
		return fmt.Errorf("%w: %d entries, %d ledger ids", ErrInconsistent, len(c.entries), c.ledger.Len())
	}
	for id := range c.ledger.Oldest() {
		if _, ok := c.entries[id]; !ok {
			return fmt.Errorf("%w: ledger id %v has no entry", ErrInconsistent, id)
		}
	}
	return nil
}

func (c *Coordinator[K, R]) logFailure(ctx context.Context, req Request[K, R], err error) {
	attrs := []any{logger.Path(req.Path), logger.Error(err)}
	if errors.Is(err, resample.ErrCancelled) || errors.Is(err, context.Canceled) {
		c.log.DebugContext(ctx, "cover load cancelled", attrs...)
		return
	}
	c.log.WarnContext(ctx, "cover load failed", attrs...)
}
