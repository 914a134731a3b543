package imagequeue

const (
	DefaultMaxInFlight = 5
)

type Options struct {
	maxInFlight int
	loaded      chan<- Image
}

type Option func(*Options)

// WithMaxInFlight bounds the number of concurrent fetches made by LoadImages
func WithMaxInFlight(n int) Option {
	return func(opts *Options) {
		if n > 0 {
			opts.maxInFlight = n
		}
	}
}

// WithLoaded publishes every image stored by the drain loop on ch. Sends
// never block, an image is dropped from the channel if the consumer is not
// keeping up. The image remains available from the cache.
func WithLoaded(ch chan<- Image) Option {
	return func(opts *Options) {
		opts.loaded = ch
	}
}
