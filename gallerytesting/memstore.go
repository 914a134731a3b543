package gallerytesting

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/forestrie/go-gallerygrid/assets"
	"github.com/forestrie/go-gallerygrid/pageformat"
	"github.com/forestrie/go-gallerygrid/thumbs"
)

// MemStore is an in memory asset store. It serves paginated listings,
// individual thumbnails, packed thumbnail pages and accepts edits, counting
// every call.
type MemStore struct {
	CallCounter

	ListPageSize  int
	ThumbPageSize int

	mu      sync.Mutex
	assets  []assets.Descriptor
	pages   map[uint32][]byte
	failOps map[string][]error
}

func NewMemStore(descriptors []assets.Descriptor, listPageSize, thumbPageSize int) (*MemStore, error) {
	s := &MemStore{
		ListPageSize:  listPageSize,
		ThumbPageSize: thumbPageSize,
		assets:        slices.Clone(descriptors),
		pages:         map[uint32][]byte{},
		failOps:       map[string][]error{},
	}

	var images [][]byte
	for i := range descriptors {
		images = append(images, ThumbBytes(descriptors[i].ID))
	}
	for first := 0; first < len(images); first += thumbPageSize {
		page, err := pageformat.EncodePage(images[first:min(first+thumbPageSize, len(images))], thumbPageSize)
		if err != nil {
			return nil, err
		}
		s.pages[pageformat.PageIndex(first, thumbPageSize)] = page
	}
	return s, nil
}

// FailNext makes the next calls of method fail with errs, one per call
func (s *MemStore) FailNext(method string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOps[method] = append(s.failOps[method], errs...)
}

func (s *MemStore) injected(method string) error {
	s.IncMethodCall(method)
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.failOps[method]
	if len(errs) == 0 {
		return nil
	}
	s.failOps[method] = errs[1:]
	return errs[0]
}

// Asset returns a copy of the stored descriptor for id
func (s *MemStore) Asset(id string) (assets.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return assets.Descriptor{}, false
	}
	d := s.assets[i]
	d.Labels = slices.Clone(d.Labels)
	return d, true
}

func (s *MemStore) indexOf(id string) int {
	return slices.IndexFunc(s.assets, func(d assets.Descriptor) bool { return d.ID == id })
}

// ListAssets pages through the assets. The cursor is the decimal offset of
// the next page.
func (s *MemStore) ListAssets(ctx context.Context, cursor string) (assets.Page, error) {
	if err := s.injected("ListAssets"); err != nil {
		return assets.Page{}, err
	}
	first := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return assets.Page{}, fmt.Errorf("bad cursor %q: %w", cursor, err)
		}
		first = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	end := min(first+s.ListPageSize, len(s.assets))
	page := assets.Page{Assets: slices.Clone(s.assets[min(first, end):end])}
	if end < len(s.assets) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

func (s *MemStore) ReadThumb(ctx context.Context, id string) ([]byte, string, error) {
	if err := s.injected("ReadThumb"); err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return nil, "", fmt.Errorf("%w: %s", thumbs.ErrThumbMissing, id)
	}
	return ThumbBytes(id), pageformat.DefaultContentType, nil
}

func (s *MemStore) ReadPage(ctx context.Context, pageIndex uint32) ([]byte, error) {
	if err := s.injected("ReadPage"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[pageIndex]
	if !ok {
		return nil, fmt.Errorf("%w: %d", thumbs.ErrPageNotFound, pageIndex)
	}
	return page, nil
}

func (s *MemStore) AddLabel(ctx context.Context, id string, label string) error {
	return s.update("AddLabel", id, func(d *assets.Descriptor) {
		if !slices.Contains(d.Labels, label) {
			d.Labels = append(d.Labels, label)
		}
	})
}

func (s *MemStore) RemoveLabel(ctx context.Context, id string, label string) error {
	return s.update("RemoveLabel", id, func(d *assets.Descriptor) {
		d.Labels = slices.DeleteFunc(d.Labels, func(l string) bool { return l == label })
	})
}

func (s *MemStore) SetDescription(ctx context.Context, id string, description string) error {
	return s.update("SetDescription", id, func(d *assets.Descriptor) {
		d.Description = description
	})
}

func (s *MemStore) update(method string, id string, fn func(d *assets.Descriptor)) error {
	if err := s.injected(method); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("asset %s not found", id)
	}
	fn(&s.assets[i])
	return nil
}
