package layout

import "github.com/datatrails/go-datatrails-common/logger"

const (
	// DefaultHeadingHeight is the height of a group heading row in pixels
	DefaultHeadingHeight = 45.0

	// DefaultBufferRows is the number of rows either side of the viewport
	// that are treated as part of the visible range for prefetching.
	DefaultBufferRows = 5

	// JustifyTolerance bounds how far a justified row may overshoot the
	// gallery width.
	JustifyTolerance = 0.005

	maxRefineSteps  = 64
	maxPullbackStep = 64
)

type Options struct {
	headingHeight float64
	log           logger.Logger
}

type Option func(*Options)

// WithHeadingHeight sets the height of group heading rows. Ignored unless
// positive.
func WithHeadingHeight(height float64) Option {
	return func(opts *Options) {
		if height > 0 {
			opts.headingHeight = height
		}
	}
}

// WithLogger reports items that are skipped because their dimensions can't be
// laid out.
func WithLogger(log logger.Logger) Option {
	return func(opts *Options) {
		opts.log = log
	}
}

func newOptions(opts ...Option) Options {
	o := Options{headingHeight: DefaultHeadingHeight}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
