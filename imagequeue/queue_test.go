package imagequeue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFetcher struct {
	mu        sync.Mutex
	order     []string
	failures  map[int]int
	released  []int
	sweeps    int
	gate      chan struct{}
	active    int
	maxActive int
}

func (f *recordingFetcher) Fetch(ctx context.Context, id string, globalIndex int) ([]byte, string, error) {
	f.mu.Lock()
	f.order = append(f.order, id)
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	failing := f.failures[globalIndex] > 0
	if failing {
		f.failures[globalIndex]--
	}
	gate := f.gate
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if failing {
		return nil, "", errors.New("connection reset")
	}
	return []byte(fmt.Sprintf("thumb:%s", id)), "image/jpeg", nil
}

func (f *recordingFetcher) Release(globalIndex int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, globalIndex)
}

func (f *recordingFetcher) Sweep() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
}

func (f *recordingFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *recordingFetcher) releasedIndices() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int(nil), f.released...)
	sort.Ints(out)
	return out
}

func newTestQueue(f Fetcher, opts ...Option) *Queue {
	return New(logger.Sugar.WithServiceName("TestImageQueue"), f, opts...)
}

func TestQueue_HighPriorityFirst(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f, WithMaxInFlight(1))

	q.QueueHighPriorityImage("a", 5)
	q.QueueLowPriorityImage("b", 6)
	require.NoError(t, q.LoadImages(context.Background()))
	assert.Equal(t, []string{"a", "b"}, f.fetched())
}

func TestQueue_DrainsHighBandBeforeLow(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f, WithMaxInFlight(1))

	for i := 0; i < 6; i++ {
		q.QueueLowPriorityImage(fmt.Sprintf("low-%d", i), 100+i)
	}
	for i := 0; i < 4; i++ {
		q.QueueHighPriorityImage(fmt.Sprintf("high-%d", i), i)
	}
	// re-queueing replaces the stale request in place
	q.QueueHighPriorityImage("high-1-renamed", 1)
	q.QueueLowPriorityImage("low-0-again", 100)

	high, low := q.QueueLen()
	assert.Equal(t, 4, high)
	assert.Equal(t, 6, low)

	require.NoError(t, q.LoadImages(context.Background()))
	assert.Equal(t, []string{
		"high-0", "high-1-renamed", "high-2", "high-3",
		"low-0-again", "low-1", "low-2", "low-3", "low-4", "low-5",
	}, f.fetched())
}

func TestQueue_FetchesOnce(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f)
	ctx := context.Background()

	q.QueueHighPriorityImage("a", 1)
	q.QueueLowPriorityImage("a", 1)
	require.NoError(t, q.LoadImages(ctx))

	q.QueueHighPriorityImage("a", 1)
	require.NoError(t, q.LoadImages(ctx))

	assert.Equal(t, []string{"a"}, f.fetched())
	assert.True(t, q.IsLoaded(1))
}

func TestQueue_RefCounts(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f)
	ctx := context.Background()

	ops := []struct {
		load bool
		want int
	}{
		{true, 1}, {true, 2}, {false, 1}, {true, 2}, {true, 3}, {false, 2}, {false, 1},
	}
	for i, op := range ops {
		if op.load {
			q.LoadImage("x", 7)
		} else {
			q.UnloadImage(7)
		}
		require.Equal(t, op.want, q.Refs(7), "op %d", i)

		q.QueueHighPriorityImage("x", 7)
		require.NoError(t, q.LoadImages(ctx))
		require.True(t, q.IsLoaded(7), "never evicted while referenced, op %d", i)
	}

	q.UnloadImage(7)
	assert.Zero(t, q.Refs(7))
	assert.Equal(t, 1, q.NumCachedImages(), "eviction waits for the sweep")
	assert.Equal(t, 1, q.Sweep())
	assert.Zero(t, q.NumCachedImages())
	assert.Equal(t, []int{7}, f.releasedIndices())
	assert.Equal(t, []string{"x"}, f.fetched())

	// unbalanced unloads are ignored
	q.UnloadImage(7)
	q.UnloadImage(8)
	assert.Zero(t, q.Refs(7))
}

func TestQueue_Handles(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f)
	ctx := context.Background()

	h := q.LoadImage("a", 3)
	select {
	case <-h.Done():
		t.Fatal("resolved before the fetch")
	default:
	}
	_, ok := h.Image()
	require.False(t, ok)

	q.QueueHighPriorityImage("a", 3)
	require.NoError(t, q.LoadImages(ctx))

	img, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb:a"), img.Data)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, 3, img.GlobalIndex)

	// resident images resolve immediately
	h2 := q.LoadImage("a", 3)
	select {
	case <-h2.Done():
	default:
		t.Fatal("resident image not resolved")
	}

	pending := q.LoadImage("b", 4)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = pending.Wait(cctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueue_FailedFetchLeavesEntryUnloaded(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{failures: map[int]int{2: 1}}
	q := newTestQueue(f, WithMaxInFlight(1))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		q.LoadImage(fmt.Sprintf("id-%d", i), i)
		q.QueueHighPriorityImage(fmt.Sprintf("id-%d", i), i)
	}
	require.NoError(t, q.LoadImages(ctx))
	assert.True(t, q.IsLoaded(1))
	assert.False(t, q.IsLoaded(2))
	assert.True(t, q.IsLoaded(3))

	// no automatic retry
	require.NoError(t, q.LoadImages(ctx))
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, f.fetched())

	q.QueueHighPriorityImage("id-2", 2)
	require.NoError(t, q.LoadImages(ctx))
	assert.True(t, q.IsLoaded(2))
}

func TestQueue_PrefetchedImagesSurviveSweep(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		q.QueueLowPriorityImage(fmt.Sprintf("p%d", i), i)
	}
	require.NoError(t, q.LoadImages(ctx))
	assert.Equal(t, 10, q.NumCachedImages())
	assert.Zero(t, q.Sweep())

	// referencing a prefetched image doesn't fetch it again
	h := q.LoadImage("p4", 4)
	<-h.Done()
	assert.Len(t, f.fetched(), 10)

	evicted := q.Trim(func(globalIndex int) bool { return globalIndex >= 5 })
	assert.Equal(t, 4, evicted, "the referenced image is kept")
	assert.Equal(t, []int{0, 1, 2, 3}, f.releasedIndices())
	assert.True(t, q.IsLoaded(4))
	assert.Positive(t, f.sweeps)
}

func TestQueue_ConcurrencyBoundAndReentrancy(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{gate: make(chan struct{})}
	q := newTestQueue(f, WithMaxInFlight(2))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		q.QueueHighPriorityImage(fmt.Sprintf("i%d", i), i)
	}

	done := make(chan error)
	go func() { done <- q.LoadImages(ctx) }()

	require.Eventually(t, func() bool { return len(f.fetched()) == 2 }, time.Second, time.Millisecond)

	// a second drain returns straight away
	require.NoError(t, q.LoadImages(ctx))

	// queued while the drain is running, picked up by the same drain
	q.QueueLowPriorityImage("late", 99)

	close(f.gate)
	require.NoError(t, <-done)

	assert.Len(t, f.fetched(), 7)
	assert.Equal(t, 2, f.maxActive)
	assert.True(t, q.IsLoaded(99))
}

func TestQueue_LoadedChannelAndClose(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	loaded := make(chan Image, 4)
	q := newTestQueue(f, WithLoaded(loaded))
	ctx := context.Background()

	q.LoadImage("a", 0)
	q.QueueHighPriorityImage("a", 0)
	q.QueueLowPriorityImage("b", 1)
	require.NoError(t, q.LoadImages(ctx))

	var got []string
	for len(got) < 2 {
		got = append(got, (<-loaded).ID)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"a", "b"}, got)

	q.QueueLowPriorityImage("c", 2)
	q.Close()
	assert.Zero(t, q.NumCachedImages())
	assert.False(t, q.IsQueued(2))
	assert.Equal(t, []int{0, 1}, f.releasedIndices())
}

func TestQueue_ClearQueue(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	f := &recordingFetcher{}
	q := newTestQueue(f)

	q.QueueHighPriorityImage("a", 1)
	q.QueueLowPriorityImage("b", 2)
	assert.True(t, q.IsQueued(1))
	q.ClearQueue()
	assert.False(t, q.IsQueued(1))
	assert.False(t, q.IsQueued(2))

	require.NoError(t, q.LoadImages(context.Background()))
	assert.Empty(t, f.fetched())
}
