package swr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
)

// Metrics emitted through stats.Tracker.
const (
	MetricHit           = "swr_hit"
	MetricMiss          = "swr_miss"
	MetricStale         = "swr_stale"
	MetricMalformed     = "swr_malformed"
	MetricReload        = "swr_reload"
	MetricRefreshed     = "swr_refreshed"
	MetricRefreshFailed = "swr_refresh_failed"
)

// FetchFunc produces a fresh value for the cache. It is supplied by the
// caller and may be arbitrarily expensive; the manager decides when it runs.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Config configures a Manager. Key, TTL and Fetch are required; everything
// else has a working default.
type Config[T any] struct {
	// Key is the store key this manager owns. One manager manages exactly
	// one logical cached resource.
	Key string

	// TTL is applied to each new write: expiration = write time + TTL.
	// Changing it later (UpdateExpiration) never touches entries already
	// written.
	TTL time.Duration

	// Fetch produces the value to cache.
	Fetch FetchFunc[T]

	// Store persists serialized entries. Defaults to an in-process memory
	// store.
	Store Store

	// Scheduler defers background refreshes. Defaults to a new
	// IdleScheduler owned by this manager.
	Scheduler Scheduler

	// RefreshTimeout is the hint handed to the scheduler: the longest a
	// deferred refresh may wait before it is forced to run.
	RefreshTimeout time.Duration

	// OnRefresh is invoked with the fresh value after a successful
	// background refresh has been written to the store.
	OnRefresh func(ctx context.Context, value T)

	// Observer receives per-operation events.
	Observer Observer

	// Codec overrides the JSON envelope value encoding.
	Codec ValueCodec[T]

	// Logger collects messages with context. Defaults to no-op.
	Logger ctxd.Logger

	// Stats tracks counters. Defaults to no-op.
	Stats stats.Tracker

	// Clock is the time source, injectable for tests.
	Clock clock.Clock
}

// Manager is a key-addressed cache for one expensive asynchronous fetch,
// with stale-while-revalidate semantics: Get always answers immediately
// (cached, stale, or freshly fetched), and a stale entry triggers a deferred
// refresh through the scheduler instead of blocking the caller.
//
// Please use NewManager to create instances.
type Manager[T any] struct {
	key       string
	store     Store
	scheduler Scheduler
	fetch     FetchFunc[T]
	onRefresh func(context.Context, T)
	observer  Observer
	codec     ValueCodec[T]
	log       ctxd.Logger
	stat      stats.Tracker
	clock     clock.Clock

	refreshTimeout time.Duration

	mu               sync.Mutex
	ttl              time.Duration
	refreshScheduled bool
}

// NewManager validates cfg and returns a ready manager.
func NewManager[T any](cfg Config[T]) (*Manager[T], error) {
	if cfg.Key == "" {
		return nil, errors.New("swr: manager requires a key")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("swr: manager requires a positive ttl")
	}
	if cfg.Fetch == nil {
		return nil, errors.New("swr: manager requires a fetch function")
	}

	m := &Manager[T]{
		key:            cfg.Key,
		store:          cfg.Store,
		scheduler:      cfg.Scheduler,
		fetch:          cfg.Fetch,
		onRefresh:      cfg.OnRefresh,
		observer:       cfg.Observer,
		codec:          cfg.Codec,
		log:            cfg.Logger,
		stat:           cfg.Stats,
		clock:          cfg.Clock,
		refreshTimeout: cfg.RefreshTimeout,
		ttl:            cfg.TTL,
	}

	if m.store == nil {
		m.store = NewMemoryStore(context.Background())
	}
	if m.scheduler == nil {
		m.scheduler = NewIdleScheduler()
	}
	if m.refreshTimeout <= 0 {
		m.refreshTimeout = defaultRefreshTimeout
	}
	if m.codec.Encode == nil || m.codec.Decode == nil {
		m.codec = JSONCodec[T]()
	}
	if m.log == nil {
		m.log = ctxd.NoOpLogger{}
	}
	if m.stat == nil {
		m.stat = stats.NoOp{}
	}
	if m.clock == nil {
		m.clock = clock.New()
	}

	return m, nil
}

// Key returns the store key this manager owns.
func (m *Manager[T]) Key() string { return m.key }

// Store returns the underlying store.
func (m *Manager[T]) Store() Store { return m.store }

// TTL returns the duration applied to the next write.
func (m *Manager[T]) TTL() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl
}

// UpdateExpiration replaces the TTL used for subsequent writes. Entries
// already in the store keep the expiration they were written with.
func (m *Manager[T]) UpdateExpiration(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	old := m.ttl
	m.ttl = ttl
	m.mu.Unlock()
	m.log.Info(context.Background(), "cache ttl updated",
		"key", m.key, "old_ttl", old.String(), "new_ttl", ttl.String())
}

// Get returns the cached value for this manager's key.
//
// A valid unexpired entry is returned as-is. A stale entry is returned
// immediately and a deferred refresh is scheduled; Get never blocks on a
// refresh it only scheduled. With no usable entry at all (empty store or
// malformed entry) the fetch runs synchronously and its failure is returned
// to the caller; this is the only case where a fetch error is caller-visible.
func (m *Manager[T]) Get(ctx context.Context) (T, error) {
	return m.lookup(ctx, false)
}

// Reload deletes the stored entry first, so the returned value always comes
// from a fresh fetch even when a valid unexpired entry existed.
func (m *Manager[T]) Reload(ctx context.Context) (T, error) {
	return m.lookup(ctx, true)
}

func (m *Manager[T]) lookup(ctx context.Context, reload bool) (T, error) {
	var zero T
	start := m.clock.Now()

	if reload {
		if err := m.store.Delete(ctx, m.key); err != nil {
			m.observe(ctx, "reload", false, err, start)
			return zero, ctxd.WrapError(ctx, err, "delete cache entry for reload", "key", m.key)
		}
		m.log.Info(ctx, "cache entry removed for reload", "key", m.key)
		m.stat.Add(ctx, MetricReload, 1, "key", m.key)
	}

	body, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.observe(ctx, "get", false, err, start)
		return zero, ctxd.WrapError(ctx, err, "read cache entry", "key", m.key)
	}

	if ok {
		entry, decErr := decodeEntry(body, m.codec)
		if decErr == nil {
			if entry.Stale(m.clock.Now()) {
				m.log.Debug(ctx, "serving stale cache entry",
					"key", m.key, "expired_at", entry.Expiration)
				m.stat.Add(ctx, MetricStale, 1, "key", m.key)
				m.scheduleRefresh(ctx)
			} else {
				m.stat.Add(ctx, MetricHit, 1, "key", m.key)
			}
			m.observe(ctx, "get", true, nil, start)
			return entry.Value, nil
		}
		// Undecodable entries are a miss, not a failure.
		m.log.Warn(ctx, "discarding malformed cache entry",
			"key", m.key, "error", decErr)
		m.stat.Add(ctx, MetricMalformed, 1, "key", m.key)
	}

	m.stat.Add(ctx, MetricMiss, 1, "key", m.key)
	value, err := m.fetch(ctx)
	if err != nil {
		m.observe(ctx, "fetch", false, err, start)
		return zero, ctxd.WrapError(ctx, err, "fetch cache value", "key", m.key)
	}
	if err := m.write(ctx, value); err != nil {
		m.observe(ctx, "fetch", false, err, start)
		return zero, err
	}
	m.observe(ctx, "fetch", true, nil, start)
	return value, nil
}

func (m *Manager[T]) write(ctx context.Context, value T) error {
	m.mu.Lock()
	ttl := m.ttl
	m.mu.Unlock()

	body, err := encodeEntry(Entry[T]{
		Expiration: m.clock.Now().Add(ttl),
		Value:      value,
	}, m.codec)
	if err != nil {
		return ctxd.WrapError(ctx, err, "encode cache entry", "key", m.key)
	}
	if err := m.store.Set(ctx, m.key, body); err != nil {
		return ctxd.WrapError(ctx, err, "write cache entry", "key", m.key)
	}
	return nil
}

// scheduleRefresh registers one deferred refresh with the scheduler. While a
// refresh is pending, further staleness detections are no-ops; the guard is
// released when the callback finishes, success or failure, so a failed
// refresh never blocks future ones.
func (m *Manager[T]) scheduleRefresh(ctx context.Context) {
	m.mu.Lock()
	if m.refreshScheduled {
		m.mu.Unlock()
		return
	}
	m.refreshScheduled = true
	m.mu.Unlock()

	m.log.Debug(ctx, "scheduling background refresh",
		"key", m.key, "timeout", m.refreshTimeout.String())

	bg := detachedContext{ctx: ctx}
	m.scheduler.Schedule(func(d Deadline) {
		defer func() {
			m.mu.Lock()
			m.refreshScheduled = false
			m.mu.Unlock()
		}()
		m.refresh(bg, d)
	}, m.refreshTimeout)
}

func (m *Manager[T]) refresh(ctx context.Context, d Deadline) {
	start := m.clock.Now()

	value, err := m.fetch(ctx)
	if err != nil {
		// Background failures have no caller to report to; log and move on.
		m.log.Warn(ctx, "background refresh failed",
			"key", m.key, "error", err, "did_timeout", d.DidTimeout)
		m.stat.Add(ctx, MetricRefreshFailed, 1, "key", m.key)
		m.observe(ctx, "refresh", false, err, start)
		return
	}
	if err := m.write(ctx, value); err != nil {
		m.log.Warn(ctx, "background refresh write failed",
			"key", m.key, "error", err)
		m.stat.Add(ctx, MetricRefreshFailed, 1, "key", m.key)
		m.observe(ctx, "refresh", false, err, start)
		return
	}

	m.stat.Add(ctx, MetricRefreshed, 1, "key", m.key)
	m.observe(ctx, "refresh", true, nil, start)

	if m.onRefresh != nil {
		m.onRefresh(ctx, value)
	}
}

func (m *Manager[T]) observe(ctx context.Context, op string, hit bool, err error, start time.Time) {
	if m.observer == nil {
		return
	}
	m.observer.OnCacheOp(ctx, op, m.key, hit, err, m.clock.Since(start), m.store.Driver())
}
