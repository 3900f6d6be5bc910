// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bus_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lumina/internal/platform/bus"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

/*
TestBus_PublishSubscribe verifies basic fan-out to multiple subscribers.
*/
func TestBus_PublishSubscribe(t *testing.T) {
	b := bus.New[string](newTestLogger())
	defer b.Close()

	first := b.Subscribe("first", 1)
	second := b.Subscribe("second", 1)

	b.Publish("hello")

	assert.Equal(t, "hello", <-first)
	assert.Equal(t, "hello", <-second)
}

/*
TestBus_DropOnFullBuffer verifies that a slow subscriber misses events
instead of blocking the publisher.
*/
func TestBus_DropOnFullBuffer(t *testing.T) {
	b := bus.New[int](newTestLogger())
	defer b.Close()

	slow := b.Subscribe("slow", 1)

	// 1. First publish fills the buffer, second is dropped.
	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, 1, <-slow)

	select {
	case v := <-slow:
		t.Fatalf("expected no buffered event, got %d", v)
	default:
	}
}

/*
TestBus_Unsubscribe verifies that an unsubscribed channel is closed and
receives nothing further.
*/
func TestBus_Unsubscribe(t *testing.T) {
	b := bus.New[int](newTestLogger())
	defer b.Close()

	ch := b.Subscribe("listener", 4)
	b.Unsubscribe("listener")

	b.Publish(42)

	_, open := <-ch
	assert.False(t, open)
}

/*
TestBus_Close verifies that Close shuts all channels and disables Publish.
*/
func TestBus_Close(t *testing.T) {
	b := bus.New[int](newTestLogger())
	ch := b.Subscribe("listener", 4)

	b.Close()

	_, open := <-ch
	require.False(t, open)

	// Publishing after Close must not panic.
	b.Publish(1)
}

/*
TestBus_ResubscribeReplaces verifies name reuse replaces the old subscription.
*/
func TestBus_ResubscribeReplaces(t *testing.T) {
	b := bus.New[int](newTestLogger())
	defer b.Close()

	old := b.Subscribe("ui", 1)
	replacement := b.Subscribe("ui", 1)

	_, open := <-old
	assert.False(t, open)

	b.Publish(7)
	assert.Equal(t, 7, <-replacement)
}
