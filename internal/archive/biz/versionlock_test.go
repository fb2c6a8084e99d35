package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalVersionLockerSerializesPerKey(t *testing.T) {
	locker := NewLocalVersionLocker()
	ctx := context.Background()

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "report.pdf\x00Invoice")
			if err != nil {
				return
			}
			defer release()
			// unsynchronized on purpose; the lock is the only guard
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLocalVersionLockerIndependentKeys(t *testing.T) {
	locker := NewLocalVersionLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	// a different key must not block behind the first
	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Acquire(ctx, "b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on an independent key blocked")
	}
}

func TestLocalVersionLockerReacquireAfterRelease(t *testing.T) {
	locker := NewLocalVersionLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "key")
	require.NoError(t, err)
	release()

	release, err = locker.Acquire(ctx, "key")
	require.NoError(t, err)
	release()
}
