package imagequeue

// Sweep evicts every image whose references have all been dropped, and
// returns the number evicted. Images that were prefetched but never referenced
// are kept, see Trim.
func (q *Queue) Sweep() int {
	return q.evict(func(globalIndex int, e *entry) bool {
		return e.released
	})
}

// Trim evicts unreferenced images for which keep returns false, including
// prefetched images that were never referenced. It is used to bound the cache
// to the neighbourhood of the viewport.
func (q *Queue) Trim(keep func(globalIndex int) bool) int {
	return q.evict(func(globalIndex int, e *entry) bool {
		return !keep(globalIndex)
	})
}

// Close drops every queued request and every cached image. Fetches in flight
// are discarded when they complete.
func (q *Queue) Close() {
	q.mu.Lock()
	q.high.clear()
	q.low.clear()
	var resident []int
	for globalIndex, e := range q.entries {
		if e.image != nil {
			resident = append(resident, globalIndex)
		}
	}
	q.entries = make(map[int]*entry)
	q.mu.Unlock()

	for _, globalIndex := range resident {
		q.release(globalIndex)
	}
	q.sweepFetcher()
}

// evict removes unreferenced, idle entries selected by pred
func (q *Queue) evict(pred func(globalIndex int, e *entry) bool) int {
	q.mu.Lock()
	var resident []int
	evicted := 0
	for globalIndex, e := range q.entries {
		if e.refs > 0 || e.loading || !pred(globalIndex, e) {
			continue
		}
		delete(q.entries, globalIndex)
		evicted++
		if e.image != nil {
			resident = append(resident, globalIndex)
		}
	}
	remaining := len(q.entries)
	q.mu.Unlock()

	for _, globalIndex := range resident {
		q.release(globalIndex)
	}
	if evicted > 0 {
		q.log.Debugf("image queue: evicted %d images, %d cached", evicted, remaining)
		q.sweepFetcher()
	}
	return evicted
}

func (q *Queue) release(globalIndex int) {
	if r, ok := q.fetcher.(Releaser); ok {
		r.Release(globalIndex)
	}
}

func (q *Queue) sweepFetcher() {
	if s, ok := q.fetcher.(Sweeper); ok {
		s.Sweep()
	}
}
