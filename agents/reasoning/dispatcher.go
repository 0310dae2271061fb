/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chainguard-dev/clog"
)

// dispatcher delivers items to a sink on its own goroutine through a bounded
// queue. send never blocks: items are dropped while the queue is full.
type dispatcher[T any] struct {
	name    string
	queue   chan T
	done    chan struct{}
	dropped atomic.Int64
	deliver func(context.Context, T) error
}

func newDispatcher[T any](ctx context.Context, name string, size int, deliver func(context.Context, T) error) *dispatcher[T] {
	d := &dispatcher[T]{
		name:    name,
		queue:   make(chan T, size),
		done:    make(chan struct{}),
		deliver: deliver,
	}
	// Deliveries outlive cancellation of the session so final events still arrive.
	go d.loop(context.WithoutCancel(ctx))
	return d
}

func (d *dispatcher[T]) loop(ctx context.Context) {
	defer close(d.done)
	log := clog.FromContext(ctx).With("sink", d.name)
	for item := range d.queue {
		if err := d.safeDeliver(ctx, item); err != nil {
			log.Warn("Sink delivery failed", "error", err)
		}
	}
}

func (d *dispatcher[T]) safeDeliver(ctx context.Context, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return d.deliver(ctx, item)
}

func (d *dispatcher[T]) send(item T) {
	if d == nil {
		return
	}
	select {
	case d.queue <- item:
	default:
		d.dropped.Add(1)
	}
}

// Dropped returns how many items were discarded because the queue was full.
func (d *dispatcher[T]) Dropped() int64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// close stops accepting items and waits up to timeout for the queue to drain.
// A sink that is still blocked after timeout is abandoned.
func (d *dispatcher[T]) close(ctx context.Context, timeout time.Duration) {
	if d == nil {
		return
	}
	close(d.queue)

	log := clog.FromContext(ctx).With("sink", d.name)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-d.done:
	case <-timer.C:
		log.Warn("Sink did not drain before timeout", "timeout", timeout, "pending", len(d.queue))
	}
	if n := d.dropped.Load(); n > 0 {
		log.Warn("Sink dropped items", "dropped", n)
	}
}
