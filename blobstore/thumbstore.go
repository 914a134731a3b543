package blobstore

import (
	"context"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/pageformat"
	"github.com/forestrie/go-gallerygrid/thumbs"
)

// ThumbStore reads individual thumbnails and packed thumbnail pages
type ThumbStore struct {
	log   logger.Logger
	store Reader
	opts  StoreOptions
}

func NewThumbStore(log logger.Logger, store Reader, opts ...StoreOption) *ThumbStore {
	return &ThumbStore{
		log:   log,
		store: store,
		opts:  NewStoreOptions(StoreOptions{}, opts...),
	}
}

// ReadThumb returns the thumbnail for an asset. The content type comes from
// the blob's ContentTypeTag and defaults to jpeg.
func (s *ThumbStore) ReadThumb(ctx context.Context, assetID string) ([]byte, string, error) {
	opts := append([]azblob.Option{}, s.opts.remoteReadOpts...)
	opts = append(opts, azblob.WithGetTags())

	rr, data, err := BlobRead(ctx, ThumbPath(assetID), s.store, thumbs.ErrThumbMissing, opts...)
	if err != nil {
		return nil, "", err
	}
	contentType := pageformat.DefaultContentType
	if ct, ok := rr.Tags[ContentTypeTag]; ok && ct != "" {
		contentType = ct
	}
	return data, contentType, nil
}

// ReadPage returns a packed thumbnail page. Pages beyond the end of the
// collection report thumbs.ErrPageNotFound.
func (s *ThumbStore) ReadPage(ctx context.Context, pageIndex uint32) ([]byte, error) {
	_, data, err := BlobRead(ctx, ThumbPagePath(pageIndex), s.store, thumbs.ErrPageNotFound, s.opts.remoteReadOpts...)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("thumb store: read page %d, %d bytes", pageIndex, len(data))
	return data, nil
}
