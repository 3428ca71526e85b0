package storage

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalesces(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { runs.Add(1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending())

	d.Trigger()
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerFlushCancelsTimer(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, d.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	// Flush with nothing pending still runs.
	d.Flush()
	assert.Equal(t, int32(2), runs.Load())
}

func TestDebouncerStop(t *testing.T) {
	var runs atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { runs.Add(1) })

	d.Trigger()
	d.Stop()
	assert.Equal(t, int32(1), runs.Load())

	d.Trigger()
	assert.False(t, d.Pending())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}
