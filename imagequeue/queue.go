package imagequeue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/datatrails/go-datatrails-common/logger"
	"golang.org/x/sync/semaphore"
)

// Fetcher retrieves the thumbnail for one asset
type Fetcher interface {
	Fetch(ctx context.Context, id string, globalIndex int) ([]byte, string, error)
}

// Releaser is implemented by fetchers that hold resources for as long as a
// fetched image is cached. Release is called when the image is evicted.
type Releaser interface {
	Release(globalIndex int)
}

// Sweeper is implemented by fetchers with their own deferred reclamation. It
// is called after the queue has evicted images.
type Sweeper interface {
	Sweep()
}

type Image struct {
	GlobalIndex int
	ID          string
	Data        []byte
	ContentType string
}

type entry struct {
	id    string
	refs  int
	image *Image

	loading bool

	// released is set once every reference has been dropped. Entries created
	// by prefetching have never been referenced and are only reclaimed by
	// Trim.
	released bool

	done chan struct{}
}

// Handle resolves once to the image of a cache entry
type Handle struct {
	q *Queue
	e *entry
}

// Done is closed when the image is resident
func (h *Handle) Done() <-chan struct{} {
	return h.e.done
}

// Image returns the image, and false if it has not loaded yet
func (h *Handle) Image() (Image, bool) {
	h.q.mu.Lock()
	defer h.q.mu.Unlock()
	if h.e.image == nil {
		return Image{}, false
	}
	return *h.e.image, true
}

// Wait blocks until the image is resident or ctx is done
func (h *Handle) Wait(ctx context.Context) (Image, error) {
	select {
	case <-h.e.done:
		img, _ := h.Image()
		return img, nil
	case <-ctx.Done():
		return Image{}, ctx.Err()
	}
}

// Queue schedules thumbnail fetches in two priority bands and caches the
// results by global index with reference counting.
//
// Images are fetched at most once while cached. Dropping the last reference
// does not evict an image, eviction happens in Sweep, which the drain loop
// runs at the end of every cycle.
type Queue struct {
	log     logger.Logger
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	high    *fifo
	low     *fifo
	entries map[int]*entry

	draining atomic.Bool
	inflight *semaphore.Weighted
}

func New(log logger.Logger, fetcher Fetcher, opts ...Option) *Queue {
	o := Options{maxInFlight: DefaultMaxInFlight}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue{
		log:      log,
		fetcher:  fetcher,
		opts:     o,
		high:     newFIFO(),
		low:      newFIFO(),
		entries:  make(map[int]*entry),
		inflight: semaphore.NewWeighted(int64(o.maxInFlight)),
	}
}

// QueueHighPriorityImage requests the image for an asset that is on screen.
// Queuing an index that is already queued replaces the stale request.
func (q *Queue) QueueHighPriorityImage(id string, globalIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.high.set(request{id: id, globalIndex: globalIndex})
}

// QueueLowPriorityImage requests the image for an asset that is near the
// screen.
func (q *Queue) QueueLowPriorityImage(id string, globalIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.low.set(request{id: id, globalIndex: globalIndex})
}

// ClearQueue discards every queued request. Fetches already in flight are not
// cancelled, their results are cached when they arrive.
func (q *Queue) ClearQueue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.high.clear()
	q.low.clear()
}

// QueueLen returns the number of queued high and low priority requests
func (q *Queue) QueueLen() (high int, low int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.high.len(), q.low.len()
}

// LoadImage adds a reference to the image for globalIndex and returns a
// handle that resolves when it is resident. If it is already resident the
// handle is resolved on return. LoadImage does not queue a fetch.
func (q *Queue) LoadImage(id string, globalIndex int) *Handle {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[globalIndex]
	if !ok {
		e = &entry{id: id, done: make(chan struct{})}
		q.entries[globalIndex] = e
	}
	if e.id == "" {
		e.id = id
	}
	e.refs++
	e.released = false
	return &Handle{q: q, e: e}
}

// UnloadImage drops a reference taken by LoadImage. The image stays cached
// until the next Sweep.
func (q *Queue) UnloadImage(globalIndex int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[globalIndex]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.refs = 0
		e.released = true
	}
}

// Refs returns the reference count for globalIndex
func (q *Queue) Refs(globalIndex int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[globalIndex]; ok {
		return e.refs
	}
	return 0
}

// IsQueued reports whether a request for globalIndex is waiting in either
// band.
func (q *Queue) IsQueued(globalIndex int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.high.has(globalIndex) || q.low.has(globalIndex)
}

// IsLoaded reports whether the image for globalIndex is resident
func (q *Queue) IsLoaded(globalIndex int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[globalIndex]
	return ok && e.image != nil
}

// NumCachedImages returns the number of cache entries, loaded or pending
func (q *Queue) NumCachedImages() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.high.len() > 0 || q.low.len() > 0
}
