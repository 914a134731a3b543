package blobstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/fxamacker/cbor/v2"
)

// AssetSource lists asset metadata blobs. The list marker is the enumeration
// cursor.
type AssetSource struct {
	log   logger.Logger
	store Reader
	opts  StoreOptions
}

func NewAssetSource(log logger.Logger, store Reader, opts ...StoreOption) *AssetSource {
	return &AssetSource{
		log:   log,
		store: store,
		opts:  NewStoreOptions(StoreOptions{}, opts...),
	}
}

// ListAssets reads one page of metadata blobs. On error no cursor is
// consumed, the caller can retry the same page.
func (s *AssetSource) ListAssets(ctx context.Context, cursor string) (assets.Page, error) {
	var marker azblob.ListMarker
	if cursor != "" {
		marker = azblob.ListMarker(&cursor)
	}

	opts := append([]azblob.Option{}, s.opts.remoteListOpts...)
	opts = append(opts, azblob.WithListPrefix(MetadataPrefix), azblob.WithListMarker(marker))

	r, err := s.store.List(ctx, opts...)
	if err != nil {
		return assets.Page{}, err
	}

	page := assets.Page{Assets: make([]assets.Descriptor, 0, len(r.Items))}
	for _, item := range r.Items {
		if item.Name == nil {
			continue
		}
		id, isCBOR, err := ParseMetadataPath(*item.Name)
		if err != nil {
			// foreign blobs under the prefix are not fatal to the listing
			s.log.Infof("asset source: skipping %s: %v", *item.Name, err)
			continue
		}
		d, err := s.readDescriptor(ctx, *item.Name, isCBOR)
		if err != nil {
			return assets.Page{}, err
		}
		if d.ID == "" {
			d.ID = id
		}
		page.Assets = append(page.Assets, d)
	}

	if r.Marker != nil && *r.Marker != "" {
		page.Next = *r.Marker
	}
	return page, nil
}

// ReadDescriptor reads the JSON metadata for a single asset
func (s *AssetSource) ReadDescriptor(ctx context.Context, assetID string) (assets.Descriptor, error) {
	return s.readDescriptor(ctx, MetadataPath(assetID), false)
}

func (s *AssetSource) readDescriptor(ctx context.Context, blobPath string, isCBOR bool) (assets.Descriptor, error) {
	_, data, err := BlobRead(ctx, blobPath, s.store, nil, s.opts.remoteReadOpts...)
	if err != nil {
		return assets.Descriptor{}, err
	}
	return DecodeDescriptor(data, isCBOR)
}

// DecodeDescriptor decodes a metadata record. CBOR records use the same field
// names as the JSON ones.
func DecodeDescriptor(data []byte, isCBOR bool) (assets.Descriptor, error) {
	var d assets.Descriptor
	var err error
	if isCBOR {
		err = cbor.Unmarshal(data, &d)
	} else {
		err = json.Unmarshal(data, &d)
	}
	if err != nil {
		return assets.Descriptor{}, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}
	return d, nil
}

// EncodeDescriptor is the inverse of DecodeDescriptor
func EncodeDescriptor(d assets.Descriptor, asCBOR bool) ([]byte, error) {
	if asCBOR {
		return cbor.Marshal(d)
	}
	return json.Marshal(d)
}
