package imagequeue

import "container/list"

type request struct {
	id          string
	globalIndex int
}

// fifo is an insertion ordered set of requests keyed by global index.
// Setting an existing key replaces the request in place, it keeps its
// position.
type fifo struct {
	order *list.List
	index map[int]*list.Element
}

func newFIFO() *fifo {
	return &fifo{order: list.New(), index: make(map[int]*list.Element)}
}

func (f *fifo) set(r request) {
	if el, ok := f.index[r.globalIndex]; ok {
		el.Value = r
		return
	}
	f.index[r.globalIndex] = f.order.PushBack(r)
}

func (f *fifo) pop() (request, bool) {
	el := f.order.Front()
	if el == nil {
		return request{}, false
	}
	r := f.order.Remove(el).(request)
	delete(f.index, r.globalIndex)
	return r, true
}

func (f *fifo) has(globalIndex int) bool {
	_, ok := f.index[globalIndex]
	return ok
}

func (f *fifo) len() int {
	return f.order.Len()
}

func (f *fifo) clear() {
	f.order.Init()
	clear(f.index)
}
