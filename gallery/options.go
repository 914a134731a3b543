package gallery

import (
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/imagequeue"
	"github.com/forestrie/go-gallerygrid/layout"
)

const (
	DefaultTargetRowHeight = 150.0
)

type Options struct {
	targetRowHeight float64
	headingHeight   float64
	bufferRows      int
	group           assets.GroupFunc
	updater         Updater
	queueOpts       []imagequeue.Option
}

type Option func(*Options)

func WithTargetRowHeight(height float64) Option {
	return func(opts *Options) {
		opts.targetRowHeight = height
	}
}

func WithHeadingHeight(height float64) Option {
	return func(opts *Options) {
		opts.headingHeight = height
	}
}

// WithBufferRows sets how many rows either side of the viewport are
// prefetched at low priority.
func WithBufferRows(rows int) Option {
	return func(opts *Options) {
		opts.bufferRows = rows
	}
}

func WithGroupFunc(group assets.GroupFunc) Option {
	return func(opts *Options) {
		opts.group = group
	}
}

// WithUpdater pushes label and description edits to the asset store
func WithUpdater(updater Updater) Option {
	return func(opts *Options) {
		opts.updater = updater
	}
}

// WithQueueOptions is forwarded to the image queue
func WithQueueOptions(queueOpts ...imagequeue.Option) Option {
	return func(opts *Options) {
		opts.queueOpts = append(opts.queueOpts, queueOpts...)
	}
}

func newOptions(opts ...Option) Options {
	o := Options{
		targetRowHeight: DefaultTargetRowHeight,
		headingHeight:   layout.DefaultHeadingHeight,
		bufferRows:      layout.DefaultBufferRows,
		group:           assets.MonthGroup,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
