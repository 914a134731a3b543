package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/pageformat"
	"github.com/forestrie/go-gallerygrid/thumbs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "s3cret"

// testServer mimics the gallery backend routes
type testServer struct {
	mu    sync.Mutex
	pages [][]byte
	posts []string
}

func (s *testServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
		var page assets.Page
		switch r.URL.Query().Get("next") {
		case "":
			page = assets.Page{Assets: []assets.Descriptor{{ID: "a", Width: 3, Height: 2}}, Next: "2"}
		case "2":
			page = assets.Page{Assets: []assets.Descriptor{{ID: "b", Width: 2, Height: 3}}}
		default:
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/thumb", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id != "a" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("webp:" + id))
	})
	mux.HandleFunc("/thumb-page", func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(r.URL.Query().Get("index"))
		if err != nil || index >= len(s.pages) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(s.pages[index])
	})
	post := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.posts = append(s.posts, fmt.Sprintf("%s %s %s%s", r.URL.Path, body["id"], body["label"], body["description"]))
		w.WriteHeader(http.StatusOK)
	}
	mux.HandleFunc("/asset/add-label", post)
	mux.HandleFunc("/asset/remove-label", post)
	mux.HandleFunc("/asset/description", post)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APIKeyHeader) != testAPIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func newTestClient(t *testing.T, s *testServer, opts ...ClientOption) *Client {
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.Sugar.WithServiceName("TestClient"), srv.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func TestClient_EnumeratesAssets(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	c := newTestClient(t, &testServer{}, WithAPIKey(testAPIKey))
	e := assets.NewEnumeration(logger.Sugar.WithServiceName("TestClient"), c, assets.WithGroupFunc(assets.SourceGroup))
	ctx := context.Background()

	var ids []string
	for {
		batch, done, err := e.Next(ctx)
		require.NoError(t, err)
		for _, d := range batch {
			ids = append(ids, d.ID)
		}
		if done {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestClient_Thumbs(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	page, err := pageformat.EncodePage([][]byte{[]byte("p0"), []byte("p1")}, 2)
	require.NoError(t, err)
	c := newTestClient(t, &testServer{pages: [][]byte{page}}, WithAPIKey(testAPIKey))
	ctx := context.Background()

	data, contentType, err := c.ReadThumb(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("webp:a"), data)
	assert.Equal(t, "image/webp", contentType)

	_, _, err = c.ReadThumb(ctx, "missing")
	require.ErrorIs(t, err, thumbs.ErrThumbMissing)

	got, err := c.ReadPage(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, page, got)

	_, err = c.ReadPage(ctx, 1)
	require.ErrorIs(t, err, thumbs.ErrPageNotFound)
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
}

func TestClient_Updates(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	s := &testServer{}
	c := newTestClient(t, s, WithAPIKey(testAPIKey))
	ctx := context.Background()

	require.NoError(t, c.AddLabel(ctx, "a", "beach"))
	require.NoError(t, c.RemoveLabel(ctx, "a", "beach"))
	require.NoError(t, c.SetDescription(ctx, "a", "sunset"))
	assert.Equal(t, []string{
		"/asset/add-label a beach",
		"/asset/remove-label a beach",
		"/asset/description a sunset",
	}, s.posts)
}

func TestClient_Errors(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	unauthorized := newTestClient(t, &testServer{})
	_, err := unauthorized.ListAssets(context.Background(), "")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)

	for _, bad := range []string{"", "ftp://example.com", "/relative", "http://"} {
		_, err := NewClient(logger.Sugar, bad)
		require.ErrorIs(t, err, ErrBaseURLInvalid, bad)
	}
}
