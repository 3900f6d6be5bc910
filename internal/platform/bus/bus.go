// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bus provides a typed publish/subscribe channel for cross-component signals.

# Architecture

UI surfaces (grid, modal, drawer) and the gallery controller communicate only
through this bus instead of reaching into each other. Publishing never blocks:
a subscriber whose buffer is full misses the event. UI signals are advisory,
so dropping is preferred over stalling the publisher.
*/
package bus

import (
	"log/slog"
	"sync"
)

// Bus is a fan-out channel for events of type T.
//
// The zero value is not usable; construct with [New].
type Bus[T any] struct {
	mu          sync.Mutex
	subscribers map[string]chan T
	closed      bool
	log         *slog.Logger
}

// New constructs an empty bus.
func New[T any](log *slog.Logger) *Bus[T] {
	return &Bus[T]{
		subscribers: make(map[string]chan T),
		log:         log,
	}
}

// Subscribe registers a named subscriber and returns its receive channel.
//
// A second subscription under the same name replaces the first; the old
// channel is closed.
func (b *Bus[T]) Subscribe(name string, buffer int) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[name]; ok {
		close(old)
	}

	ch := make(chan T, buffer)
	b.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a named subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[name]; ok {
		close(ch)
		delete(b.subscribers, name)
	}
}

// Publish delivers event to every subscriber without blocking.
//
// Subscribers with a full buffer are skipped; the drop is logged at debug
// level so noisy UI signals do not flood the logs.
func (b *Bus[T]) Publish(event T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for name, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.log.Debug("bus_event_dropped", slog.String("subscriber", name))
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op afterwards.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for name, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, name)
	}
}
