package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// Reader is the subset of the azblob store used to read gallery blobs
type Reader interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)

	List(ctx context.Context, opts ...azblob.Option) (*azblob.ListerResponse, error)
}

// BlobRead reads the whole blob at blobPath. BlobNotFound from the azure sdk
// is translated to ErrBlobNotFound, wrapped with notFound when it is not nil.
func BlobRead(
	ctx context.Context, blobPath string, store Reader, notFound error,
	opts ...azblob.Option) (*azblob.ReaderResponse, []byte, error) {

	rr, err := store.Reader(ctx, blobPath, opts...)
	if err != nil {
		return nil, nil, WrapBlobNotFound(err, notFound)
	}
	if c, ok := rr.Reader.(io.Closer); ok {
		defer c.Close()
	}

	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", blobPath, err)
	}
	if rr.ContentLength > 0 && int64(len(data)) != rr.ContentLength {
		return nil, nil, fmt.Errorf(
			"reading %s: %w: read %d of %d bytes", blobPath, io.ErrUnexpectedEOF, len(data), rr.ContentLength)
	}
	return rr, data, nil
}
