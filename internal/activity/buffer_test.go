package activity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(t *testing.T, i int) Event {
	t.Helper()
	e, err := NewKeystrokeEvent(
		time.Date(2026, 3, 1, 10, 0, i, 0, time.UTC),
		fmt.Sprintf("Key%d", i),
		nil,
		AppContext{AppName: "ghostty", WindowTitle: "zsh"},
	)
	require.NoError(t, err)
	return e
}

func TestNewEventBufferDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultBufferSize, NewEventBuffer(0).Cap())
	assert.Equal(t, DefaultBufferSize, NewEventBuffer(-3).Cap())
	assert.Equal(t, 7, NewEventBuffer(7).Cap())
}

func TestPopFrontOnEmpty(t *testing.T) {
	b := NewEventBuffer(3)

	e, ok := b.PopFront()
	assert.False(t, ok)
	assert.Equal(t, Event{}, e)
	assert.Equal(t, 0, b.Len())
}

func TestPushPopRoundTrip(t *testing.T) {
	b := NewEventBuffer(3)
	in := makeEvent(t, 1)

	assert.False(t, b.Push(in))
	out, ok := b.PopFront()
	require.True(t, ok)
	assert.Equal(t, in, out)
	assert.Equal(t, 0, b.Len())
}

func TestPushEvictsOldestWhenFull(t *testing.T) {
	b := NewEventBuffer(3)
	events := make([]Event, 5)
	for i := range events {
		events[i] = makeEvent(t, i)
	}

	for i, e := range events {
		evicted := b.Push(e)
		assert.Equal(t, i >= 3, evicted, "push %d", i)
		assert.LessOrEqual(t, b.Len(), 3)
	}
	assert.Equal(t, uint64(2), b.Dropped())

	for _, want := range events[2:] {
		got, ok := b.PopFront()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := b.PopFront()
	assert.False(t, ok)
}

func TestFIFOOrderAcrossWraparound(t *testing.T) {
	b := NewEventBuffer(2)
	b.Push(makeEvent(t, 0))
	b.Push(makeEvent(t, 1))
	first, _ := b.PopFront()
	b.Push(makeEvent(t, 2))

	second, _ := b.PopFront()
	third, _ := b.PopFront()
	assert.Equal(t, makeEvent(t, 0), first)
	assert.Equal(t, makeEvent(t, 1), second)
	assert.Equal(t, makeEvent(t, 2), third)
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const total = 5000
	b := NewEventBuffer(64)
	e := makeEvent(t, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			b.Push(e)
		}
	}()

	popped := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		if _, ok := b.PopFront(); ok {
			popped++
			continue
		}
		select {
		case <-done:
			for {
				if _, ok := b.PopFront(); !ok {
					break
				}
				popped++
			}
			assert.Equal(t, uint64(total), uint64(popped)+b.Dropped())
			return
		default:
		}
	}
}
