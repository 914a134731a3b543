package imagequeue

import (
	"context"
	"sync"
)

// LoadImages drains both queues, always preferring high priority requests,
// with at most MaxInFlight fetches outstanding. Requests for images that are
// resident or already being fetched are skipped.
//
// Only one drain runs at a time. A call made while another drain is running
// returns immediately, the running drain picks up the newly queued requests.
// A failed fetch is logged and leaves the image unloaded, it is retried only if
// it is queued again.
//
// Sweep is run when the queues are exhausted. The returned error is only ever
// the context error.
func (q *Queue) LoadImages(ctx context.Context) error {
	for {
		if !q.draining.CompareAndSwap(false, true) {
			return nil
		}
		err := q.drain(ctx)
		q.draining.Store(false)

		// Requests queued after the final check of the drain would otherwise
		// wait for the next call.
		if err != nil || !q.pending() {
			return err
		}
	}
}

func (q *Queue) drain(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		for {
			if err := q.inflight.Acquire(ctx, 1); err != nil {
				return err
			}
			req, e, ok := q.dequeue()
			if !ok {
				q.inflight.Release(1)
				break
			}
			if e == nil {
				q.inflight.Release(1)
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer q.inflight.Release(1)
				q.fetch(ctx, req, e)
			}()
		}

		wg.Wait()
		if !q.pending() {
			break
		}
	}

	q.Sweep()
	return nil
}

// dequeue pops the next request. The entry is nil if the request should be
// skipped.
func (q *Queue) dequeue() (request, *entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	req, ok := q.high.pop()
	if !ok {
		req, ok = q.low.pop()
	}
	if !ok {
		return request{}, nil, false
	}

	e, ok := q.entries[req.globalIndex]
	if !ok {
		e = &entry{id: req.id, done: make(chan struct{})}
		q.entries[req.globalIndex] = e
	}
	if e.image != nil || e.loading {
		return req, nil, true
	}
	e.loading = true
	return req, e, true
}

func (q *Queue) fetch(ctx context.Context, req request, e *entry) {
	data, contentType, err := q.fetcher.Fetch(ctx, req.id, req.globalIndex)

	q.mu.Lock()
	e.loading = false
	if err != nil {
		q.mu.Unlock()
		q.log.Infof("image queue: failed loading %s (index %d): %v", req.id, req.globalIndex, err)
		return
	}

	// The cache was closed while the fetch was in flight
	if q.entries[req.globalIndex] != e {
		q.mu.Unlock()
		q.release(req.globalIndex)
		return
	}

	img := Image{GlobalIndex: req.globalIndex, ID: req.id, Data: data, ContentType: contentType}
	e.image = &img
	close(e.done)
	q.mu.Unlock()

	if q.opts.loaded != nil {
		select {
		case q.opts.loaded <- img:
		default:
		}
	}
}
