package layout

import "sort"

// Range is a half open range of row indices. Start and End include the
// prefetch buffer, VisibleStart and VisibleEnd cover only the rows that
// intersect the viewport.
type Range struct {
	Start        int
	End          int
	VisibleStart int
	VisibleEnd   int
}

// Len returns the number of rows in the range, buffer included
func (r Range) Len() int {
	return r.End - r.Start
}

// IsVisible reports whether rowIndex intersects the viewport
func (r Range) IsVisible(rowIndex int) bool {
	return rowIndex >= r.VisibleStart && rowIndex < r.VisibleEnd
}

// FindVisibleRange returns the rows intersecting the viewport
// [scrollTop, scrollTop+viewportHeight), widened by buffer rows on either
// side. A negative buffer selects DefaultBufferRows. The second result is
// false if no row intersects the viewport.
func FindVisibleRange(l *Layout, scrollTop, viewportHeight float64, buffer int) (Range, bool) {
	if l == nil || len(l.Rows) == 0 || viewportHeight <= 0 {
		return Range{}, false
	}
	if buffer < 0 {
		buffer = DefaultBufferRows
	}
	rows := l.Rows
	viewportBottom := scrollTop + viewportHeight

	first := sort.Search(len(rows), func(i int) bool {
		return rows[i].Bottom() > scrollTop
	})
	end := sort.Search(len(rows), func(i int) bool {
		return rows[i].OffsetY >= viewportBottom
	})
	if first >= end {
		return Range{}, false
	}

	return Range{
		Start:        max(first-buffer, 0),
		End:          min(end+buffer, len(rows)),
		VisibleStart: first,
		VisibleEnd:   end,
	}, true
}

// SplitItems partitions the items of r into those on visible rows and those
// on buffer rows.
func (l *Layout) SplitItems(r Range) (visible []*Item, prefetch []*Item) {
	for i := r.Start; i < r.End && i < len(l.Rows); i++ {
		items := l.RowItems(&l.Rows[i])
		if r.IsVisible(i) {
			visible = append(visible, items...)
			continue
		}
		prefetch = append(prefetch, items...)
	}
	return visible, prefetch
}
