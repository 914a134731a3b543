package thumbs

import "github.com/forestrie/go-gallerygrid/pageformat"

type Options struct {
	pageSize      int
	eagerEviction bool
	retainPages   int
}

type Option func(*Options)

// WithPageSize sets the number of thumbnails per page. It must match the page
// size the pages were packed with.
func WithPageSize(pageSize int) Option {
	return func(opts *Options) {
		opts.pageSize = pageSize
	}
}

// WithEagerEviction drops a page as soon as its last reference is released,
// rather than waiting for the next Sweep.
func WithEagerEviction() Option {
	return func(opts *Options) {
		opts.eagerEviction = true
	}
}

// WithRetainedPages keeps up to n swept pages in a least recently used side
// cache. A retained page is revived without a download if it is referenced
// again, which is the common case when scrolling back and forth.
func WithRetainedPages(n int) Option {
	return func(opts *Options) {
		opts.retainPages = n
	}
}

func newOptions(opts ...Option) Options {
	o := Options{pageSize: pageformat.DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
