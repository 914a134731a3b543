package thumbs

import (
	"context"
	"fmt"
)

// PageFetcher serves single thumbnails out of a PageCache. The page reference
// taken by Fetch is held until the image cache lets go of the thumbnail and
// calls Release.
type PageFetcher struct {
	cache *PageCache
}

func NewPageFetcher(cache *PageCache) *PageFetcher {
	return &PageFetcher{cache: cache}
}

func (f *PageFetcher) Fetch(ctx context.Context, id string, globalIndex int) ([]byte, string, error) {
	return f.cache.LoadThumbnail(ctx, globalIndex)
}

func (f *PageFetcher) Release(globalIndex int) {
	f.cache.ReleaseThumbnail(globalIndex)
}

func (f *PageFetcher) Sweep() {
	f.cache.Sweep()
}

// ThumbSource reads an individual thumbnail by asset id
type ThumbSource interface {
	ReadThumb(ctx context.Context, id string) ([]byte, string, error)
}

// SingleFetcher fetches each thumbnail with its own request. It is the
// fallback for stores that don't publish packed pages.
type SingleFetcher struct {
	source ThumbSource
}

func NewSingleFetcher(source ThumbSource) *SingleFetcher {
	return &SingleFetcher{source: source}
}

func (f *SingleFetcher) Fetch(ctx context.Context, id string, globalIndex int) ([]byte, string, error) {
	if id == "" {
		return nil, "", fmt.Errorf("%w: no asset id for index %d", ErrThumbMissing, globalIndex)
	}
	return f.source.ReadThumb(ctx, id)
}
