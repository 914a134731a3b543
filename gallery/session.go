package gallery

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/imagequeue"
	"github.com/forestrie/go-gallerygrid/layout"
	"github.com/google/uuid"
)

// Updater persists edits made to items in the gallery
type Updater interface {
	AddLabel(ctx context.Context, assetID string, label string) error
	RemoveLabel(ctx context.Context, assetID string, label string) error
	SetDescription(ctx context.Context, assetID string, description string) error
}

// Session is a single gallery view. It owns the layout, the image queue and,
// through the fetcher, the page cache. Everything is released by Close.
type Session struct {
	ID string

	log   logger.Logger
	opts  Options
	enum  *assets.Enumeration
	queue *imagequeue.Queue

	galleryWidth float64

	ctx    context.Context
	cancel context.CancelFunc
	drains sync.WaitGroup

	firstPage     chan struct{}
	firstPageOnce sync.Once
	built         chan struct{}
	builtOnce     sync.Once

	mu       sync.Mutex
	layout   *layout.Layout
	selected int
	closed   bool
}

func NewSession(
	log logger.Logger, source assets.Source, fetcher imagequeue.Fetcher,
	galleryWidth float64, opts ...Option) (*Session, error) {

	o := newOptions(opts...)

	// Validates the geometry before anything is fetched
	l, err := layout.ComputePartialLayout(nil, nil, galleryWidth, o.targetRowHeight)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           uuid.NewString(),
		log:          log,
		opts:         o,
		enum:         assets.NewEnumeration(log, source, assets.WithGroupFunc(o.group)),
		queue:        imagequeue.New(log, fetcher, o.queueOpts...),
		galleryWidth: galleryWidth,
		ctx:          ctx,
		cancel:       cancel,
		firstPage:    make(chan struct{}),
		built:        make(chan struct{}),
		layout:       l,
		selected:     -1,
	}
	log.Infof("gallery %s: session started, width %v", s.ID, galleryWidth)
	return s, nil
}

// Build enumerates every asset and lays it out, one batch at a time. It
// yields to other goroutines between batches so rendering can proceed with a
// partial layout. FirstPageLoaded is closed after the first batch.
//
// Build can be called again after an error to resume from the failed page.
func (s *Session) Build(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	for !s.enum.Done() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrBuildIncomplete, err)
		}
		batch, done, err := s.enum.Next(ctx)
		if err != nil {
			return fmt.Errorf("%w: gallery %s: %w", ErrBuildIncomplete, s.ID, err)
		}
		if err := s.addBatch(batch); err != nil {
			return err
		}
		s.firstPageOnce.Do(func() {
			s.log.Infof("gallery %s: first page loaded, %d assets", s.ID, len(batch))
			close(s.firstPage)
		})
		if done {
			break
		}
		runtime.Gosched()
	}

	s.mu.Lock()
	n := len(s.layout.Items)
	s.mu.Unlock()
	s.log.Infof("gallery %s: layout complete, %d assets", s.ID, n)

	s.builtOnce.Do(func() { close(s.built) })
	return nil
}

func (s *Session) addBatch(batch []assets.Descriptor) error {
	items := make([]layout.Item, 0, len(batch))
	for i := range batch {
		items = append(items, toItem(&batch[i]))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	l, err := layout.ComputePartialLayout(
		s.layout, items, s.galleryWidth, s.opts.targetRowHeight,
		layout.WithHeadingHeight(s.opts.headingHeight), layout.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.layout = l
	return nil
}

func toItem(d *assets.Descriptor) layout.Item {
	return layout.Item{
		ID:          d.ID,
		Width:       d.Width,
		Height:      d.Height,
		Group:       d.Group,
		GlobalIndex: d.GlobalIndex,
		Labels:      append([]string(nil), d.Labels...),
		Description: d.Description,
	}
}

// FirstPageLoaded is closed once the first batch has been laid out
func (s *Session) FirstPageLoaded() <-chan struct{} {
	return s.firstPage
}

// Built is closed once every asset has been laid out
func (s *Session) Built() <-chan struct{} {
	return s.built
}

// WithLayout calls fn with the layout while holding the session lock. fn must
// not retain the layout or call back into the session.
func (s *Session) WithLayout(fn func(l *layout.Layout)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.layout)
}

// GalleryHeight returns the current height of the laid out gallery
func (s *Session) GalleryHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.GalleryHeight
}

// Headings lists the top level headings for scroll bar markers
func (s *Session) Headings() []layout.Heading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Headings()
}

// SetViewport re-prioritises image loading for a new scroll position. Queued
// requests are replaced: images on visible rows are queued at high priority,
// images on the buffer rows at low priority. Unreferenced images outside the
// buffered window are trimmed from the cache. Loading continues in the
// background.
func (s *Session) SetViewport(scrollTop, viewportHeight float64) (layout.Range, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return layout.Range{}, false
	}
	r, ok := layout.FindVisibleRange(s.layout, scrollTop, viewportHeight, s.opts.bufferRows)
	var visible, prefetch []*layout.Item
	if ok {
		visible, prefetch = s.layout.SplitItems(r)
	}
	type req struct {
		id          string
		globalIndex int
	}
	high := make([]req, 0, len(visible))
	for _, it := range visible {
		high = append(high, req{it.ID, it.GlobalIndex})
	}
	low := make([]req, 0, len(prefetch))
	for _, it := range prefetch {
		low = append(low, req{it.ID, it.GlobalIndex})
	}
	window := s.layout.ItemsInRows(r.Start, r.End)
	s.mu.Unlock()

	s.queue.ClearQueue()
	for _, q := range high {
		s.queue.QueueHighPriorityImage(q.id, q.globalIndex)
	}
	for _, q := range low {
		s.queue.QueueLowPriorityImage(q.id, q.globalIndex)
	}

	lo, hi := -1, -1
	if len(window) > 0 {
		lo, hi = window[0].GlobalIndex, window[len(window)-1].GlobalIndex
	}
	s.queue.Trim(func(globalIndex int) bool {
		return globalIndex >= lo && globalIndex <= hi
	})

	s.kick()
	return r, ok
}

// kick starts a background drain. The drain returns at once if another is
// already running.
func (s *Session) kick() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.drains.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.drains.Done()
		if err := s.queue.LoadImages(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Infof("gallery %s: loading images: %v", s.ID, err)
		}
	}()
}

// Wait blocks until every background drain started so far has finished
func (s *Session) Wait() {
	s.drains.Wait()
}

// LoadImage references the thumbnail of a rendered item
func (s *Session) LoadImage(id string, globalIndex int) *imagequeue.Handle {
	return s.queue.LoadImage(id, globalIndex)
}

// UnloadImage drops a reference taken by LoadImage
func (s *Session) UnloadImage(globalIndex int) {
	s.queue.UnloadImage(globalIndex)
}

// Queue exposes the image queue for inspection
func (s *Session) Queue() *imagequeue.Queue {
	return s.queue
}

// Close stops background loading and releases every cached image and page
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.drains.Wait()
	s.queue.Close()
	s.log.Infof("gallery %s: session closed", s.ID)
}
