package gallery

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/blobstore"
	"github.com/forestrie/go-gallerygrid/config"
	"github.com/forestrie/go-gallerygrid/layout"
	"github.com/forestrie/go-gallerygrid/thumbs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unreachableStore struct{}

func (unreachableStore) Reader(ctx context.Context, identity string, opts ...azblob.Option) (*azblob.ReaderResponse, error) {
	return nil, errors.New("unreachable")
}

func (unreachableStore) List(ctx context.Context, opts ...azblob.Option) (*azblob.ListerResponse, error) {
	return nil, errors.New("unreachable")
}

func TestSourcesFromConfig(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()
	log := logger.Sugar.WithServiceName(t.Name())

	cfg := config.Default()
	cfg.API.BaseURL = "http://localhost:1"
	src, err := SourcesFromConfig(log, &cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, src.Updater)
	require.NotNil(t, src.Pages)
	assert.Equal(t, cfg.Thumbs.PageSize, src.Pages.PageSize())
	assert.IsType(t, &thumbs.PageFetcher{}, src.Fetcher)

	cfg.Thumbs.UsePages = false
	src, err = SourcesFromConfig(log, &cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, src.Pages)
	assert.IsType(t, &thumbs.SingleFetcher{}, src.Fetcher)

	cfg.Source = config.SourceAzblob
	cfg.Blob.Container = "gallery"
	_, err = SourcesFromConfig(log, &cfg, nil)
	require.ErrorIs(t, err, ErrStoreRequired)

	src, err = SourcesFromConfig(log, &cfg, unreachableStore{})
	require.NoError(t, err)
	assert.Nil(t, src.Updater)
	assert.IsType(t, &blobstore.AssetSource{}, src.Assets)

	cfg.Source = "ftp"
	_, err = SourcesFromConfig(log, &cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewSessionFromConfig_HTTP(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	store, descriptors := newTestStore(t, 40, 0)
	srv := httptest.NewServer(store.Handler("sekret"))
	defer srv.Close()

	cfg, err := config.Parse([]byte(`
source: http
api:
  base_url: `+srv.URL+`
  api_key: sekret
layout:
  target_row_height: 120
  buffer_rows: 2
thumbs:
  page_size: 10
  retain_pages: 2
`), nil)
	require.NoError(t, err)

	s, err := NewSessionFromConfig(logger.Sugar.WithServiceName(t.Name()), cfg, nil, testGalleryWidth)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Build(context.Background()))
	s.WithLayout(func(l *layout.Layout) {
		assert.Len(t, l.Items, 40)
		assert.Equal(t, 120.0, l.TargetRowHeight)
	})

	r, ok := s.SetViewport(0, 300)
	require.True(t, ok)
	s.Wait()
	s.WithLayout(func(l *layout.Layout) {
		for _, it := range l.ItemsInRows(r.Start, r.End) {
			assert.True(t, s.Queue().IsLoaded(it.GlobalIndex), "item %d", it.GlobalIndex)
		}
	})
	assert.Positive(t, store.MethodCallCount("ReadPage"))
	assert.Zero(t, store.MethodCallCount("ReadThumb"))

	require.NoError(t, s.AddLabel(context.Background(), 0, "kept"))
	stored, ok := store.Asset(descriptors[0].ID)
	require.True(t, ok)
	assert.Equal(t, []string{"kept"}, stored.Labels)
}

func TestNewSessionFromConfig_WrongAPIKey(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	store, _ := newTestStore(t, 3, 0)
	srv := httptest.NewServer(store.Handler("sekret"))
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.APIKey = "guess"

	s, err := NewSessionFromConfig(logger.Sugar.WithServiceName(t.Name()), &cfg, nil, testGalleryWidth)
	require.NoError(t, err)
	defer s.Close()
	err = s.Build(context.Background())
	require.ErrorIs(t, err, ErrBuildIncomplete)
	assert.Zero(t, store.MethodCallCount("ListAssets"))
}
