package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var ticks, expires int32
	done := make(chan struct{})

	c := NewCountdown(3,
		func(remaining int) { atomic.AddInt32(&ticks, 1) },
		func() {
			atomic.AddInt32(&expires, 1)
			close(done)
		},
	)
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never expired")
	}

	// Give any erroneous extra fire a chance to land.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&ticks))
	assert.Equal(t, int32(1), atomic.LoadInt32(&expires))
	assert.False(t, c.Running())
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownStopDiscardsPendingTick(t *testing.T) {
	var fired int32
	c := NewCountdown(10, func(int) { atomic.AddInt32(&fired, 1) }, nil)
	c.SetInterval(20 * time.Millisecond)
	c.Start()
	c.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
	assert.False(t, c.Running())
	assert.Equal(t, 10, c.Remaining())
}

func TestCountdownStartIsIdempotent(t *testing.T) {
	done := make(chan struct{})
	var expires int32
	c := NewCountdown(2, nil, func() {
		atomic.AddInt32(&expires, 1)
		close(done)
	})
	c.SetInterval(5 * time.Millisecond)
	c.Start()
	c.Start()
	c.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never expired")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&expires))
}

func TestCountdownCallbackMayStopCountdown(t *testing.T) {
	var c *Countdown
	var once sync.Once
	stopped := make(chan struct{})

	c = NewCountdown(10, func(remaining int) {
		// Re-entrancy: the tick callback runs outside the countdown lock.
		once.Do(func() {
			c.Stop()
			close(stopped)
		})
	}, nil)
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("tick callback never ran")
	}
	time.Sleep(30 * time.Millisecond)
	require.False(t, c.Running())
	assert.Equal(t, 9, c.Remaining())
}

func TestCountdownZeroSecondsExpiresImmediately(t *testing.T) {
	done := make(chan struct{})
	c := NewCountdown(0, nil, func() { close(done) })
	c.SetInterval(5 * time.Millisecond)
	c.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("zero countdown never expired")
	}
}
