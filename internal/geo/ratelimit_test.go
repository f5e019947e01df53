package geo

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_AllowsLimitPerWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fw := NewFixedWindow(3, time.Minute)
	fw.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, fw.Allow(), "call %d", i)
	}
	assert.False(t, fw.Allow())
	assert.Equal(t, 0, fw.Remaining())

	now = now.Add(59 * time.Second)
	assert.False(t, fw.Allow(), "same window")

	now = now.Add(time.Second)
	assert.Equal(t, 3, fw.Remaining())
	assert.True(t, fw.Allow(), "new window")
	assert.Equal(t, 2, fw.Remaining())
}

func TestFixedWindow_Concurrent(t *testing.T) {
	fw := NewFixedWindow(30, time.Hour)
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if fw.Allow() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(30), admitted.Load())
}
