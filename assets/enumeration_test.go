package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedSource struct {
	pages   map[string]Page
	failing map[string]int
	calls   []string
}

func (s *pagedSource) ListAssets(ctx context.Context, cursor string) (Page, error) {
	s.calls = append(s.calls, cursor)
	if s.failing[cursor] > 0 {
		s.failing[cursor]--
		return Page{}, errors.New("transient")
	}
	page, ok := s.pages[cursor]
	if !ok {
		return Page{}, fmt.Errorf("no page for cursor %q", cursor)
	}
	// hand out a copy so the enumeration can't alias the fixture
	page.Assets = append([]Descriptor(nil), page.Assets...)
	return page, nil
}

func descriptors(prefix string, n int, sortDate time.Time) []Descriptor {
	ds := make([]Descriptor, n)
	for i := range ds {
		ds[i] = Descriptor{ID: fmt.Sprintf("%s-%d", prefix, i), Width: 4, Height: 3, SortDate: sortDate}
	}
	return ds
}

func TestEnumeration_Next(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	march := time.Date(2024, time.March, 3, 10, 0, 0, 0, time.UTC)
	april := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	src := &pagedSource{
		pages: map[string]Page{
			"":   {Assets: descriptors("p0", 3, march), Next: "c1"},
			"c1": {Assets: descriptors("p1", 2, april), Next: "c2"},
			"c2": {Assets: nil, Next: "c3"},
			"c3": {Assets: descriptors("p3", 1, time.Time{})},
		},
		failing: map[string]int{"c1": 1},
	}
	e := NewEnumeration(logger.Sugar.WithServiceName("TestEnumeration"), src)
	ctx := context.Background()

	batch, done, err := e.Next(ctx)
	require.NoError(t, err)
	require.False(t, done)
	require.Len(t, batch, 3)
	assert.Equal(t, []int{0, 1, 2}, globalIndices(batch))
	assert.Equal(t, "Mar, 2024", batch[0].Group)

	// a failed page is retried from the same cursor
	_, done, err = e.Next(ctx)
	require.Error(t, err)
	require.False(t, done)
	batch, done, err = e.Next(ctx)
	require.NoError(t, err)
	require.False(t, done)
	assert.Equal(t, []int{3, 4}, globalIndices(batch))
	assert.Equal(t, "Apr, 2024", batch[1].Group)

	batch, done, err = e.Next(ctx)
	require.NoError(t, err)
	require.False(t, done)
	assert.Empty(t, batch)

	batch, done, err = e.Next(ctx)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, []int{5}, globalIndices(batch))
	assert.Equal(t, UndatedGroup, batch[0].Group)
	assert.Equal(t, 6, e.Count())
	assert.True(t, e.Done())

	_, done, err = e.Next(ctx)
	require.ErrorIs(t, err, ErrEnumerationDone)
	require.True(t, done)

	assert.Equal(t, []string{"", "c1", "c1", "c2", "c3"}, src.calls)
}

func TestEnumeration_SourceGroup(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	src := &pagedSource{pages: map[string]Page{
		"": {Assets: []Descriptor{{ID: "a", Width: 1, Height: 1, Group: "holiday"}}},
	}}
	e := NewEnumeration(logger.Sugar.WithServiceName("TestEnumeration"), src, WithGroupFunc(SourceGroup))
	batch, done, err := e.Next(context.Background())
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, "holiday", batch[0].Group)
}

func TestDescriptor_JSON(t *testing.T) {
	data := []byte(`{
		"assets": [{
			"_id": "6530e1f0",
			"width": 4032,
			"height": 3024,
			"sortDate": "2023-10-19T08:15:00.000Z",
			"labels": ["beach"],
			"description": "sunset",
			"origFileName": "IMG_0001.jpg"
		}],
		"next": "abc"
	}`)
	var page Page
	require.NoError(t, json.Unmarshal(data, &page))
	require.Len(t, page.Assets, 1)
	d := page.Assets[0]
	assert.Equal(t, "6530e1f0", d.ID)
	assert.Equal(t, 4032, d.Width)
	assert.Equal(t, []string{"beach"}, d.Labels)
	assert.Equal(t, "Oct, 2023", MonthGroup(&d))
	assert.Equal(t, "abc", page.Next)
}

func globalIndices(ds []Descriptor) []int {
	out := make([]int, len(ds))
	for i, d := range ds {
		out[i] = d.GlobalIndex
	}
	return out
}
