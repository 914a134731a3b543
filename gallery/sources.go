package gallery

import (
	"fmt"
	"net/http"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/blobstore"
	"github.com/forestrie/go-gallerygrid/config"
	"github.com/forestrie/go-gallerygrid/httpapi"
	"github.com/forestrie/go-gallerygrid/imagequeue"
	"github.com/forestrie/go-gallerygrid/thumbs"
)

// Sources is everything a Session reads from, assembled from configuration
type Sources struct {
	Assets  assets.Source
	Fetcher imagequeue.Fetcher
	Updater Updater // nil when the store can't be written

	// Pages is the page cache behind Fetcher, nil when thumbnails are
	// fetched one at a time.
	Pages *thumbs.PageCache
}

type thumbReader interface {
	thumbs.ThumbSource
	thumbs.PageSource
}

// SourcesFromConfig builds the sources selected by cfg. store is required for
// the azblob source and ignored otherwise. Edits are written back to the blob
// store when store also implements blobstore.Writer.
func SourcesFromConfig(log logger.Logger, cfg *config.Config, store blobstore.Reader) (Sources, error) {
	var (
		src     Sources
		readers thumbReader
	)

	switch cfg.Source {
	case config.SourceHTTP:
		c, err := httpapi.NewClient(
			log, cfg.API.BaseURL,
			httpapi.WithAPIKey(cfg.API.APIKey),
			httpapi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
		if err != nil {
			return Sources{}, err
		}
		src.Assets = c
		src.Updater = c
		readers = c
	case config.SourceAzblob:
		if store == nil {
			return Sources{}, ErrStoreRequired
		}
		src.Assets = blobstore.NewAssetSource(log, store)
		readers = blobstore.NewThumbStore(log, store)
		if w, ok := store.(blobstore.Writer); ok {
			src.Updater = blobstore.NewPublisher(log, w, cfg.Blob.MetadataCBOR)
		}
	default:
		return Sources{}, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}

	if !cfg.Thumbs.UsePages {
		src.Fetcher = thumbs.NewSingleFetcher(readers)
		return src, nil
	}

	opts := []thumbs.Option{
		thumbs.WithPageSize(cfg.Thumbs.PageSize),
		thumbs.WithRetainedPages(cfg.Thumbs.RetainPages),
	}
	if cfg.Thumbs.EagerEviction {
		opts = append(opts, thumbs.WithEagerEviction())
	}
	pages, err := thumbs.NewPageCache(log, readers, opts...)
	if err != nil {
		return Sources{}, err
	}
	src.Pages = pages
	src.Fetcher = thumbs.NewPageFetcher(pages)
	return src, nil
}

// OptionsFromConfig translates the layout and queue settings of cfg
func OptionsFromConfig(cfg *config.Config) []Option {
	group := assets.MonthGroup
	if cfg.Layout.Grouping == config.GroupingSource {
		group = assets.SourceGroup
	}
	return []Option{
		WithTargetRowHeight(cfg.Layout.TargetRowHeight),
		WithHeadingHeight(cfg.Layout.HeadingHeight),
		WithBufferRows(cfg.Layout.BufferRows),
		WithGroupFunc(group),
		WithQueueOptions(imagequeue.WithMaxInFlight(cfg.Queue.MaxInFlight)),
	}
}

// NewSessionFromConfig opens a session over the sources selected by cfg
func NewSessionFromConfig(
	log logger.Logger, cfg *config.Config, store blobstore.Reader,
	galleryWidth float64, opts ...Option) (*Session, error) {

	src, err := SourcesFromConfig(log, cfg, store)
	if err != nil {
		return nil, err
	}
	all := OptionsFromConfig(cfg)
	if src.Updater != nil {
		all = append(all, WithUpdater(src.Updater))
	}
	return NewSession(log, src.Assets, src.Fetcher, galleryWidth, append(all, opts...)...)
}
