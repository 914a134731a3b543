package layout

import (
	"fmt"
	"math"
	"sort"
)

// Layout is the ordered row sequence of a gallery plus the arena of every item
// laid out so far.
type Layout struct {
	Items []Item
	Rows  []Row

	// GalleryHeight is the sum of all row heights, the open row included
	GalleryHeight float64

	GalleryWidth    float64
	TargetRowHeight float64

	closedHeight float64
	hasOpen      bool
}

// NewLayout returns an empty layout for the provided geometry
func NewLayout(galleryWidth, targetRowHeight float64) *Layout {
	return &Layout{
		GalleryWidth:    galleryWidth,
		TargetRowHeight: targetRowHeight,
	}
}

// ComputePartialLayout extends existing with batch and returns it. When
// existing is nil a new layout is created.
//
// Successive calls with consecutive batches produce the same rows as a single
// call with the concatenated batches. Only the open row, the last row of the
// previous result, is revisited. existing is extended in place.
//
// Items whose width or height is not positive are skipped. The geometry must
// match the geometry of existing, a resized gallery needs a fresh layout.
func ComputePartialLayout(
	existing *Layout, batch []Item, galleryWidth, targetRowHeight float64, opts ...Option) (*Layout, error) {

	if !validDimension(galleryWidth) || !validDimension(targetRowHeight) {
		return nil, fmt.Errorf(
			"%w: width %v, target row height %v", ErrInvalidGeometry, galleryWidth, targetRowHeight)
	}

	o := newOptions(opts...)

	l := existing
	if l == nil {
		l = NewLayout(galleryWidth, targetRowHeight)
	}
	if l.GalleryWidth != galleryWidth || l.TargetRowHeight != targetRowHeight {
		return nil, fmt.Errorf(
			"%w: layout %vx%v, requested %vx%v", ErrGeometryChanged,
			l.GalleryWidth, l.TargetRowHeight, galleryWidth, targetRowHeight)
	}

	for i := range batch {
		l.add(batch[i], &o)
	}
	l.GalleryHeight = l.closedHeight
	if l.hasOpen {
		l.GalleryHeight += l.Rows[len(l.Rows)-1].Height
	}
	return l, nil
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// IsOpen reports whether the row at rowIndex is the open row, the only row a
// later call to ComputePartialLayout may still change.
func (l *Layout) IsOpen(rowIndex int) bool {
	return l.hasOpen && rowIndex == len(l.Rows)-1
}

// ItemByGlobalIndex returns the laid out item with the provided global index.
// The pointer refers into the arena and remains valid until the next call to
// ComputePartialLayout.
func (l *Layout) ItemByGlobalIndex(globalIndex int) (*Item, error) {
	i, ok := l.itemIndex(globalIndex)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, globalIndex)
	}
	return &l.Items[i], nil
}

// itemIndex relies on the enumeration assigning global indices in ascending
// order.
func (l *Layout) itemIndex(globalIndex int) (int, bool) {
	i := sort.Search(len(l.Items), func(i int) bool {
		return l.Items[i].GlobalIndex >= globalIndex
	})
	if i >= len(l.Items) || l.Items[i].GlobalIndex != globalIndex {
		return 0, false
	}
	return i, true
}

// RowItems returns the items of an item row. The result is nil for heading
// rows.
func (l *Layout) RowItems(row *Row) []*Item {
	if row.Kind != RowItems {
		return nil
	}
	items := make([]*Item, 0, len(row.Items))
	for _, ix := range row.Items {
		items = append(items, &l.Items[ix])
	}
	return items
}

// ItemsInRows returns the items of rows [start, end) in display order
func (l *Layout) ItemsInRows(start, end int) []*Item {
	start = max(start, 0)
	end = min(end, len(l.Rows))
	var items []*Item
	for i := start; i < end; i++ {
		items = append(items, l.RowItems(&l.Rows[i])...)
	}
	return items
}

func (l *Layout) add(it Item, o *Options) {
	if it.Width <= 0 || it.Height <= 0 {
		if o.log != nil {
			o.log.Infof("layout: skipping %s (global index %d), dimensions %dx%d",
				it.ID, it.GlobalIndex, it.Width, it.Height)
		}
		return
	}
	it.AspectRatio = float64(it.Width) / float64(it.Height)
	it.scaleToHeight(l.TargetRowHeight)

	if l.hasOpen {
		open := &l.Rows[len(l.Rows)-1]

		// Width is checked first. When both apply the row is also the last
		// of its group, so it is not stretched.
		overflow := open.Width+it.ThumbWidth > l.GalleryWidth
		groupChanged := open.Group != it.Group
		if overflow || groupChanged {
			l.closeOpenRow(!groupChanged)
		}
	}

	if !l.hasOpen {
		if len(l.Rows) == 0 || l.Rows[len(l.Rows)-1].Group != it.Group {
			l.Rows = append(l.Rows, Row{
				Kind:     RowHeading,
				Group:    it.Group,
				Headings: []string{it.Group},
				OffsetY:  l.closedHeight,
				Height:   o.headingHeight,
			})
			l.closedHeight += o.headingHeight
		}
		l.Rows = append(l.Rows, Row{
			Kind:       RowItems,
			Group:      it.Group,
			StartIndex: it.GlobalIndex,
			OffsetY:    l.closedHeight,
			Height:     l.TargetRowHeight,
		})
		l.hasOpen = true
	}

	open := &l.Rows[len(l.Rows)-1]
	it.OffsetX = open.Width
	l.Items = append(l.Items, it)
	open.Items = append(open.Items, len(l.Items)-1)
	open.Width += it.ThumbWidth
}

func (l *Layout) closeOpenRow(justify bool) {
	row := &l.Rows[len(l.Rows)-1]
	if justify {
		l.justify(row)
	}
	row.OffsetY = l.closedHeight
	l.closedHeight += row.Height
	l.hasOpen = false
}
