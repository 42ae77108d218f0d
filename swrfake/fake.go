// Package swrfake provides deterministic fakes for testing code built on swr:
// a counting in-memory store with failure injection and a manually fired
// scheduler. No external services are needed.
package swrfake

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goforj/swr"
)

// Op identifies a store operation for assertions.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpFlush  Op = "flush"
)

// Store is an in-memory swr.Store that records calls and can be made to fail
// per operation.
type Store struct {
	mu       sync.Mutex
	values   map[string][]byte
	counts   map[Op]map[string]int
	failures map[Op]error
}

// NewStore creates an empty fake store.
func NewStore() *Store {
	return &Store{
		values:   make(map[string][]byte),
		counts:   make(map[Op]map[string]int),
		failures: make(map[Op]error),
	}
}

// FailWith makes every subsequent call of op return err. Pass nil to clear.
func (s *Store) FailWith(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Seed writes value under key without counting the write.
func (s *Store) Seed(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
}

// Driver implements swr.Store.
func (s *Store) Driver() swr.Driver { return swr.Driver("fake") }

// Ready implements swr.Store.
func (s *Store) Ready(context.Context) error { return nil }

// Get implements swr.Store.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(OpGet, key)
	if err := s.failures[OpGet]; err != nil {
		return nil, false, err
	}
	body, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

// Set implements swr.Store.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(OpSet, key)
	if err := s.failures[OpSet]; err != nil {
		return err
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements swr.Store.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(OpDelete, key)
	if err := s.failures[OpDelete]; err != nil {
		return err
	}
	delete(s.values, key)
	return nil
}

// Flush implements swr.Store.
func (s *Store) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump(OpFlush, "")
	if err := s.failures[OpFlush]; err != nil {
		return err
	}
	s.values = make(map[string][]byte)
	return nil
}

// AssertCalled verifies key was touched by op the expected number of times.
func (s *Store) AssertCalled(t *testing.T, op Op, key string, times int) {
	t.Helper()
	if got := s.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, key, times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (s *Store) AssertNotCalled(t *testing.T, op Op, key string) {
	t.Helper()
	if got := s.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, key, got)
	}
}

// Count returns calls for op+key.
func (s *Store) Count(op Op, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[op] == nil {
		return 0
	}
	return s.counts[op][key]
}

// Reset clears recorded counts and failures but keeps stored values.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[Op]map[string]int)
	s.failures = make(map[Op]error)
}

func (s *Store) bump(op Op, key string) {
	if s.counts[op] == nil {
		s.counts[op] = make(map[string]int)
	}
	s.counts[op][key]++
}

// Scheduler captures deferred callbacks so tests control exactly when, and
// with what deadline, each one runs.
type Scheduler struct {
	mu    sync.Mutex
	tasks []func(swr.Deadline)
}

// NewScheduler creates an empty manual scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule implements swr.Scheduler.
func (s *Scheduler) Schedule(fn func(swr.Deadline), _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, fn)
}

// Pending reports how many callbacks are waiting.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Fire runs the oldest pending callback synchronously and reports whether one
// existed. The callback sees the provided timeout state and a full budget.
func (s *Scheduler) Fire(didTimeout bool) bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	fn := s.tasks[0]
	s.tasks = s.tasks[1:]
	s.mu.Unlock()

	fn(swr.Deadline{
		DidTimeout:    didTimeout,
		TimeRemaining: func() time.Duration { return 50 * time.Millisecond },
	})
	return true
}
