package gallerytesting

import (
	"context"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/blobstore"
	"github.com/stretchr/testify/require"
)

// TestContext connects tests to the azurite blob store emulator
type TestContext struct {
	Log    logger.Logger
	Storer *azblob.Storer
	T      *testing.T
}

type TestConfig struct {
	StartTimeMS     int64
	TestLabelPrefix string
	Container       string // can be "" defaults to TestLabelPrefix
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T: t,
	}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	container := cfg.Container
	if container == "" {
		container = strings.ReplaceAll(strings.ToLower(cfg.TestLabelPrefix), "_", "")
	}

	var err error
	c.Storer, err = azblob.NewDev(azblob.NewDevConfigFromEnv(), container)
	if err != nil {
		t.Fatalf("failed to connect to blob store emulator: %v", err)
	}
	client := c.Storer.GetServiceClient()
	// Note: we expect a 'already exists' error here and ignore it.
	_, _ = client.CreateContainer(context.Background(), container, nil)

	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

func (c *TestContext) GetStorer() *azblob.Storer {
	return c.Storer
}

// Reset removes every gallery blob from the container
func (c *TestContext) Reset() {
	c.DeleteBlobsByPrefix(blobstore.MetadataPrefix)
	c.DeleteBlobsByPrefix(blobstore.ThumbPrefix)
	c.DeleteBlobsByPrefix(blobstore.ThumbPagePrefix)
}

func (c *TestContext) DeleteBlobsByPrefix(blobPrefixPath string) {
	var err error
	var r *azblob.ListerResponse
	var blobs []string

	var marker azblob.ListMarker
	for {
		r, err = c.Storer.List(
			context.Background(),
			azblob.WithListPrefix(blobPrefixPath), azblob.WithListMarker(marker))

		require.NoError(c.T, err)

		for _, i := range r.Items {
			blobs = append(blobs, *i.Name)
		}
		if len(r.Items) == 0 || r.Marker == nil || *r.Marker == "" {
			break
		}
		marker = r.Marker
	}
	for _, blobPath := range blobs {
		err = c.Storer.Delete(context.Background(), blobPath)
		require.NoError(c.T, err)
	}
}

// PublishCollection writes metadata, thumbnails and packed pages for
// descriptors, which must be in display order.
func (c *TestContext) PublishCollection(descriptors []assets.Descriptor, pageSize int, asCBOR bool) {
	ctx := context.Background()
	p := blobstore.NewPublisher(c.Log, c.Storer, asCBOR)

	var images [][]byte
	for _, d := range descriptors {
		thumb := ThumbBytes(d.ID)
		require.NoError(c.T, p.PutAsset(ctx, d, thumb, ""))
		images = append(images, thumb)
	}
	_, err := p.PutPages(ctx, images, pageSize)
	require.NoError(c.T, err)
}
