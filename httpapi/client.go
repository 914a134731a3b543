package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/thumbs"
)

const (
	// APIKeyHeader carries the api key on every request
	APIKeyHeader = "key"

	DefaultTimeout = 30 * time.Second

	defaultContentType = "application/octet-stream"
)

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.http = c
	}
}

// WithAPIKey forwards key to the server. The client does no authentication
// of its own.
func WithAPIKey(key string) ClientOption {
	return func(client *Client) {
		client.apiKey = key
	}
}

// Client talks to the gallery REST api. It implements assets.Source,
// thumbs.ThumbSource and thumbs.PageSource.
type Client struct {
	log     logger.Logger
	baseURL *url.URL
	http    *http.Client
	apiKey  string
}

func NewClient(log logger.Logger, baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURLInvalid, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrBaseURLInvalid, baseURL)
	}
	c := &Client{
		log:     log,
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListAssets fetches one page of asset descriptors. An empty cursor requests
// the first page.
func (c *Client) ListAssets(ctx context.Context, cursor string) (assets.Page, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("next", cursor)
	}
	body, _, err := c.get(ctx, "/assets", q)
	if err != nil {
		return assets.Page{}, err
	}

	var page assets.Page
	if err := json.Unmarshal(body, &page); err != nil {
		return assets.Page{}, fmt.Errorf("decoding asset page: %w", err)
	}
	return page, nil
}

// ReadThumb fetches the thumbnail of a single asset
func (c *Client) ReadThumb(ctx context.Context, assetID string) ([]byte, string, error) {
	body, header, err := c.get(ctx, "/thumb", url.Values{"id": {assetID}})
	if err != nil {
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: %w", thumbs.ErrThumbMissing, err)
		}
		return nil, "", err
	}
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	return body, contentType, nil
}

// ReadPage fetches a packed thumbnail page. The server responds 404 for pages
// beyond the end of the collection.
func (c *Client) ReadPage(ctx context.Context, pageIndex uint32) ([]byte, error) {
	q := url.Values{"index": {strconv.FormatUint(uint64(pageIndex), 10)}}
	body, _, err := c.get(ctx, "/thumb-page", q)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %w", thumbs.ErrPageNotFound, err)
		}
		return nil, err
	}
	return body, nil
}

// AddLabel attaches a label to an asset
func (c *Client) AddLabel(ctx context.Context, assetID string, label string) error {
	return c.post(ctx, "/asset/add-label", map[string]string{"id": assetID, "label": label})
}

// RemoveLabel detaches a label from an asset
func (c *Client) RemoveLabel(ctx context.Context, assetID string, label string) error {
	return c.post(ctx, "/asset/remove-label", map[string]string{"id": assetID, "label": label})
}

// SetDescription replaces the description of an asset
func (c *Client) SetDescription(ctx context.Context, assetID string, description string) error {
	return c.post(ctx, "/asset/description", map[string]string{"id": assetID, "description": description})
}

func (c *Client) endpoint(route string, q url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + route
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, route string, q url.Values) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(route, q), nil)
	if err != nil {
		return nil, nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, route string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(route, nil), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, _, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, http.Header, error) {
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil, &StatusError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	c.log.Debugf("api: %s %s %d bytes", req.Method, req.URL.Path, len(body))
	return body, resp.Header, nil
}

func isNotFound(err error) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode == http.StatusNotFound
}
