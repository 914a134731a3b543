package thumbs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/pageformat"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// PageSource reads whole packed thumbnail pages. Implementations return an
// error wrapping ErrPageNotFound for pages beyond the end of the collection.
type PageSource interface {
	ReadPage(ctx context.Context, pageIndex uint32) ([]byte, error)
}

type pageEntry struct {
	data []byte
	refs int
}

// PageCache shares downloaded thumbnail pages between every thumbnail that
// falls inside them. Pages are reference counted. A page whose count has
// dropped to zero stays resident until the next Sweep, so a thumbnail that is
// released and promptly referenced again does not cost a download.
type PageCache struct {
	log    logger.Logger
	source PageSource
	opts   Options

	mu    sync.Mutex
	pages map[uint32]*pageEntry

	// retained holds recently swept pages, nil unless WithRetainedPages
	retained *lru.Cache[uint32, []byte]

	fetches singleflight.Group
}

func NewPageCache(log logger.Logger, source PageSource, opts ...Option) (*PageCache, error) {
	o := newOptions(opts...)
	if o.pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", pageformat.ErrPageSizeInvalid, o.pageSize)
	}
	c := &PageCache{
		log:    log,
		source: source,
		opts:   o,
		pages:  make(map[uint32]*pageEntry),
	}
	if o.retainPages > 0 {
		retained, err := lru.New[uint32, []byte](o.retainPages)
		if err != nil {
			return nil, err
		}
		c.retained = retained
	}
	return c, nil
}

// PageSize returns the number of thumbnails per page
func (c *PageCache) PageSize() int {
	return c.opts.pageSize
}

// LoadThumbnail returns a copy of the thumbnail at globalIndex and its content
// type, adding a reference to the page that holds it. Every successful call
// must be balanced by a call to ReleaseThumbnail.
//
// Concurrent misses on the same page share a single download.
func (c *PageCache) LoadThumbnail(ctx context.Context, globalIndex int) ([]byte, string, error) {
	if globalIndex < 0 {
		return nil, "", fmt.Errorf("%w: %d", ErrIndexRange, globalIndex)
	}
	pageIndex := pageformat.PageIndex(globalIndex, c.opts.pageSize)
	slot := pageformat.SlotIndex(globalIndex, c.opts.pageSize)

	data, err := c.acquirePage(ctx, pageIndex)
	if err != nil {
		return nil, "", err
	}

	img, err := pageformat.ExtractSlot(data, c.opts.pageSize, slot)
	if err != nil {
		c.ReleaseThumbnail(globalIndex)
		return nil, "", fmt.Errorf("thumbnail %d, page %d slot %d: %w", globalIndex, pageIndex, slot, err)
	}
	return img, pageformat.DefaultContentType, nil
}

// ReleaseThumbnail drops the reference LoadThumbnail added to the page holding
// globalIndex.
func (c *PageCache) ReleaseThumbnail(globalIndex int) {
	if globalIndex < 0 {
		return
	}
	pageIndex := pageformat.PageIndex(globalIndex, c.opts.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pages[pageIndex]
	if !ok {
		return
	}
	entry.refs = max(entry.refs-1, 0)
	if entry.refs == 0 && c.opts.eagerEviction {
		c.evictLocked(pageIndex, entry)
	}
}

// Sweep evicts every page that is no longer referenced and returns the number
// evicted.
func (c *PageCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for pageIndex, entry := range c.pages {
		if entry.refs > 0 {
			continue
		}
		c.evictLocked(pageIndex, entry)
		evicted++
	}
	if evicted > 0 {
		c.log.Debugf("page cache: evicted %d pages, %d resident", evicted, len(c.pages))
	}
	return evicted
}

// NumCachedPages returns the number of resident pages
func (c *PageCache) NumCachedPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// NumRetainedPages returns the number of swept pages held for revival
func (c *PageCache) NumRetainedPages() int {
	if c.retained == nil {
		return 0
	}
	return c.retained.Len()
}

// PageRefs returns the reference count of a page, and false if it is not
// resident.
func (c *PageCache) PageRefs(pageIndex uint32) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.pages[pageIndex]
	if !ok {
		return 0, false
	}
	return entry.refs, true
}

func (c *PageCache) acquirePage(ctx context.Context, pageIndex uint32) ([]byte, error) {
	c.mu.Lock()
	if entry, ok := c.pages[pageIndex]; ok {
		entry.refs++
		data := entry.data
		c.mu.Unlock()
		return data, nil
	}
	if c.retained != nil {
		if data, ok := c.retained.Get(pageIndex); ok {
			c.retained.Remove(pageIndex)
			c.pages[pageIndex] = &pageEntry{data: data, refs: 1}
			c.mu.Unlock()
			return data, nil
		}
	}
	c.mu.Unlock()

	v, err, _ := c.fetches.Do(strconv.FormatUint(uint64(pageIndex), 10), func() (any, error) {
		data, err := c.readPage(ctx, pageIndex)
		if err != nil {
			return nil, err
		}
		// Publish before the flight ends, so a miss arriving after it
		// finds the page rather than starting a second read.
		c.mu.Lock()
		if _, ok := c.pages[pageIndex]; !ok {
			c.pages[pageIndex] = &pageEntry{data: data}
		}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The entry can have been swept before this caller took its reference
	entry, ok := c.pages[pageIndex]
	if !ok {
		entry = &pageEntry{data: v.([]byte)}
		c.pages[pageIndex] = entry
	}
	entry.refs++
	return entry.data, nil
}

func (c *PageCache) evictLocked(pageIndex uint32, entry *pageEntry) {
	delete(c.pages, pageIndex)
	if c.retained != nil {
		c.retained.Add(pageIndex, entry.data)
	}
}

func (c *PageCache) readPage(ctx context.Context, pageIndex uint32) ([]byte, error) {
	data, err := c.source.ReadPage(ctx, pageIndex)
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", pageIndex, err)
	}
	// A truncated header fails the whole page, it is never cached.
	if _, err := pageformat.DecodeHeader(data, c.opts.pageSize); err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}
	c.log.Debugf("page cache: loaded page %d, %d bytes", pageIndex, len(data))
	return data, nil
}
