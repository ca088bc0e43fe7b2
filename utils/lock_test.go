package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapLock(t *testing.T) {
	var (
		mu        sync.Mutex
		globalVar int64
	)

	wg := sync.WaitGroup{}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go WrapLock(&mu, func() {
			defer wg.Done()
			loop(10, func() {
				globalVar++
			})
		})
	}

	wg.Wait()
	t.Log("global var:", globalVar)
	assert.Equal(t, int64(30), globalVar)
}

func TestWrapLockErr(t *testing.T) {
	var mu sync.Mutex
	err := WrapLockErr(&mu, func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	// lock must be released even when fn fails
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

func loop(times int, fn func()) {
	for i := 0; i < times; i++ {
		fn()
	}
}
