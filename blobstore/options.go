package blobstore

import "github.com/datatrails/go-datatrails-common/azblob"

// StoreOptions are forwarded to the blob api. Implementations of the reader
// interface are expected to ignore options they don't support.
type StoreOptions struct {
	// options that are forwarded when issuing a read blob call
	remoteReadOpts []azblob.Option
	// options that are forwarded when issuing a list blobs call
	remoteListOpts []azblob.Option
}

// StoreOptionsCopy creates an independent copy of opts
func StoreOptionsCopy(opts StoreOptions) StoreOptions {
	cpy := opts

	cpy.remoteReadOpts = make([]azblob.Option, len(opts.remoteReadOpts))
	copy(cpy.remoteReadOpts, opts.remoteReadOpts)

	cpy.remoteListOpts = make([]azblob.Option, len(opts.remoteListOpts))
	copy(cpy.remoteListOpts, opts.remoteListOpts)
	return cpy
}

// NewStoreOptions creates a new StoreOptions with the provided options applied
// over a copy of baseOpts.
func NewStoreOptions(baseOpts StoreOptions, opts ...StoreOption) StoreOptions {
	options := StoreOptionsCopy(baseOpts)
	for _, o := range opts {
		o(&options)
	}
	return options
}

type StoreOption func(*StoreOptions)

func WithReadBlobOption(option azblob.Option) StoreOption {
	return func(opts *StoreOptions) {
		opts.remoteReadOpts = append(opts.remoteReadOpts, option)
	}
}

func WithListBlobOption(option azblob.Option) StoreOption {
	return func(opts *StoreOptions) {
		opts.remoteListOpts = append(opts.remoteListOpts, option)
	}
}
