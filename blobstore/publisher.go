package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/pageformat"
	"github.com/fxamacker/cbor/v2"
)

const (
	azblobConditionNotMet = "ConditionNotMet"

	// maxUpdateAttempts bounds the read-modify-write retries when another
	// writer changes a metadata blob between our read and our write.
	maxUpdateAttempts = 3
)

// Writer is the subset of the azblob store used to publish gallery blobs
type Writer interface {
	Reader
	Put(
		ctx context.Context,
		identity string,
		source io.ReadSeekCloser,
		opts ...azblob.Option,
	) (*azblob.WriteResponse, error)
}

// Publisher writes asset metadata, thumbnails and packed thumbnail pages in
// the layout read by AssetSource and ThumbStore. It also persists label and
// description edits made in a gallery session.
type Publisher struct {
	log    logger.Logger
	store  Writer
	asCBOR bool
}

func NewPublisher(log logger.Logger, store Writer, asCBOR bool) *Publisher {
	return &Publisher{log: log, store: store, asCBOR: asCBOR}
}

// PutAsset writes the metadata record for d and, when thumb is not empty, its
// thumbnail.
func (p *Publisher) PutAsset(ctx context.Context, d assets.Descriptor, thumb []byte, contentType string) error {
	data, err := EncodeDescriptor(d, p.asCBOR)
	if err != nil {
		return err
	}
	blobPath := MetadataPath(d.ID)
	if p.asCBOR {
		blobPath = MetadataCBORPath(d.ID)
	}
	if _, err = p.store.Put(ctx, blobPath, azblob.NewBytesReaderCloser(data)); err != nil {
		return fmt.Errorf("writing %s: %w", blobPath, err)
	}
	if len(thumb) == 0 {
		return nil
	}
	if contentType == "" {
		contentType = pageformat.DefaultContentType
	}
	tags := map[string]string{ContentTypeTag: contentType}
	_, err = p.store.Put(ctx, ThumbPath(d.ID), azblob.NewBytesReaderCloser(thumb), azblob.WithTags(tags))
	if err != nil {
		return fmt.Errorf("writing thumbnail for %s: %w", d.ID, err)
	}
	return nil
}

// PutPages packs thumbnails, in global index order, into pages of pageSize
// and writes them. It returns the number of pages written.
func (p *Publisher) PutPages(ctx context.Context, thumbnails [][]byte, pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, fmt.Errorf("%w: %d", pageformat.ErrPageSizeInvalid, pageSize)
	}
	var n int
	for first := 0; first < len(thumbnails); first += pageSize {
		images := thumbnails[first:min(first+pageSize, len(thumbnails))]
		page, err := pageformat.EncodePage(images, pageSize)
		if err != nil {
			return n, err
		}
		pageIndex := pageformat.PageIndex(first, pageSize)
		if _, err = p.store.Put(ctx, ThumbPagePath(pageIndex), azblob.NewBytesReaderCloser(page)); err != nil {
			return n, fmt.Errorf("writing thumbnail page %d: %w", pageIndex, err)
		}
		n++
	}
	p.log.Debugf("publisher: wrote %d thumbnail pages for %d thumbnails", n, len(thumbnails))
	return n, nil
}

func (p *Publisher) AddLabel(ctx context.Context, assetID string, label string) error {
	return p.update(ctx, assetID, func(record map[string]any) bool {
		labels := recordLabels(record)
		if slices.Contains(labels, label) {
			return false
		}
		record["labels"] = append(labels, label)
		return true
	})
}

func (p *Publisher) RemoveLabel(ctx context.Context, assetID string, label string) error {
	return p.update(ctx, assetID, func(record map[string]any) bool {
		labels := recordLabels(record)
		if !slices.Contains(labels, label) {
			return false
		}
		record["labels"] = slices.DeleteFunc(labels, func(l string) bool { return l == label })
		return true
	})
}

func (p *Publisher) SetDescription(ctx context.Context, assetID string, description string) error {
	return p.update(ctx, assetID, func(record map[string]any) bool {
		if current, ok := record["description"].(string); ok && current == description {
			return false
		}
		record["description"] = description
		return true
	})
}

func recordLabels(record map[string]any) []string {
	raw, _ := record["labels"].([]any)
	labels := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			labels = append(labels, s)
		}
	}
	return labels
}

// update applies fn to the metadata record of assetID. The record is decoded
// generically so fields the gallery doesn't model are written back untouched.
// The write is guarded by the etag of the read.
func (p *Publisher) update(ctx context.Context, assetID string, fn func(record map[string]any) bool) error {
	var err error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err = p.updateOnce(ctx, assetID, fn)
		if !IsConditionNotMet(err) {
			return err
		}
		p.log.Infof("publisher: metadata for %s changed during update, retrying", assetID)
	}
	return err
}

func (p *Publisher) updateOnce(ctx context.Context, assetID string, fn func(record map[string]any) bool) error {
	blobPath, isCBOR := MetadataPath(assetID), false
	if p.asCBOR {
		blobPath, isCBOR = MetadataCBORPath(assetID), true
	}
	rr, data, err := BlobRead(ctx, blobPath, p.store, nil, azblob.WithGetTags())
	if err != nil {
		return err
	}

	record := map[string]any{}
	if isCBOR {
		err = cbor.Unmarshal(data, &record)
	} else {
		err = json.Unmarshal(data, &record)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMetadataDecode, blobPath, err)
	}
	if !fn(record) {
		return nil
	}

	if isCBOR {
		data, err = cbor.Marshal(record)
	} else {
		data, err = json.Marshal(record)
	}
	if err != nil {
		return err
	}

	opts := []azblob.Option{}
	if rr.Tags != nil {
		opts = append(opts, azblob.WithTags(rr.Tags))
	}
	if rr.ETag != nil && *rr.ETag != "" {
		opts = append(opts, azblob.WithEtagMatch(*rr.ETag))
	}
	if _, err = p.store.Put(ctx, blobPath, azblob.NewBytesReaderCloser(data), opts...); err != nil {
		return fmt.Errorf("writing %s: %w", blobPath, err)
	}
	return nil
}

// IsConditionNotMet reports whether err is the azure sdk error for a failed
// etag precondition, or wraps ErrConditionNotMet.
func IsConditionNotMet(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConditionNotMet) {
		return true
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return false
	}
	return serr.ErrorCode == azblobConditionNotMet
}
