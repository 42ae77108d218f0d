package swr

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// defaultIdleSlice is the execution budget granted to each deferred
	// callback, mirroring the ~50ms ceiling idle-callback hosts hand out.
	defaultIdleSlice = 50 * time.Millisecond

	defaultIdleQueueSize = 64
)

// Deadline describes the execution window granted to a deferred callback.
type Deadline struct {
	// DidTimeout reports that the callback ran because its timeout hint
	// elapsed before the scheduler got to it.
	DidTimeout bool

	// TimeRemaining returns how much of the callback's execution budget is
	// left. It never goes negative.
	TimeRemaining func() time.Duration
}

// Scheduler defers a callback off the caller's critical path.
//
// Implementations must eventually run every scheduled callback: there is no
// cancellation. The timeout hint bounds how long a callback may sit queued
// before it is forced to run with DidTimeout set.
type Scheduler interface {
	Schedule(fn func(Deadline), timeout time.Duration)
}

func zeroRemaining() time.Duration { return 0 }

// IdleScheduler runs callbacks on a single background worker, granting each
// a fixed idle slice. A callback that waited past its timeout hint still
// runs, with DidTimeout reported true.
type IdleScheduler struct {
	clock clock.Clock
	slice time.Duration
	queue chan idleTask
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

type idleTask struct {
	fn       func(Deadline)
	deadline time.Time
}

// NewIdleScheduler starts the worker immediately. Close stops it; callbacks
// scheduled after Close fall back to detached goroutines so they still run.
func NewIdleScheduler() *IdleScheduler {
	return newIdleScheduler(clock.New())
}

func newIdleScheduler(c clock.Clock) *IdleScheduler {
	s := &IdleScheduler{
		clock: c,
		slice: defaultIdleSlice,
		queue: make(chan idleTask, defaultIdleQueueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *IdleScheduler) Schedule(fn func(Deadline), timeout time.Duration) {
	if fn == nil {
		return
	}
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	task := idleTask{fn: fn, deadline: s.clock.Now().Add(timeout)}

	// Enqueueing under the lock guarantees the worker's final drain still
	// sees the task when Close runs concurrently.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		go fn(Deadline{DidTimeout: true, TimeRemaining: zeroRemaining})
		return
	}
	select {
	case s.queue <- task:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		// Queue saturated: run detached with an exhausted budget rather
		// than drop the callback.
		go fn(Deadline{DidTimeout: true, TimeRemaining: zeroRemaining})
	}
}

// Close stops the worker. Pending queued callbacks are drained before the
// worker exits; callbacks scheduled after Close run on detached goroutines.
// Close is idempotent.
func (s *IdleScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

func (s *IdleScheduler) run() {
	for {
		select {
		case task := <-s.queue:
			s.dispatch(task)
		case <-s.done:
			for {
				select {
				case task := <-s.queue:
					s.dispatch(task)
				default:
					return
				}
			}
		}
	}
}

func (s *IdleScheduler) dispatch(task idleTask) {
	now := s.clock.Now()
	end := now.Add(s.slice)
	task.fn(Deadline{
		DidTimeout: !now.Before(task.deadline),
		TimeRemaining: func() time.Duration {
			rem := end.Sub(s.clock.Now())
			if rem < 0 {
				return 0
			}
			return rem
		},
	})
}

// TimerScheduler is the fixed-delay fallback: every callback runs after its
// timeout hint on its own timer, always reporting DidTimeout true with no
// remaining budget. Use it where the shared idle worker is unwanted.
type TimerScheduler struct {
	clock clock.Clock
}

func NewTimerScheduler() *TimerScheduler {
	return newTimerScheduler(clock.New())
}

func newTimerScheduler(c clock.Clock) *TimerScheduler {
	return &TimerScheduler{clock: c}
}

func (s *TimerScheduler) Schedule(fn func(Deadline), timeout time.Duration) {
	if fn == nil {
		return
	}
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	s.clock.AfterFunc(timeout, func() {
		fn(Deadline{DidTimeout: true, TimeRemaining: zeroRemaining})
	})
}
