package swr

import (
	"context"
	"time"
)

// detachedContext inherits values from its parent but drops its deadline and
// cancellation, so a deferred refresh outlives the request that scheduled it.
type detachedContext struct {
	ctx context.Context
}

func (d detachedContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (d detachedContext) Done() <-chan struct{} {
	return nil
}

func (d detachedContext) Err() error {
	return nil
}

func (d detachedContext) Value(key interface{}) interface{} {
	return d.ctx.Value(key)
}
