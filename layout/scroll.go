package layout

// Heading is a top level group heading and its position in the gallery
type Heading struct {
	Label   string
	OffsetY float64
}

// Headings lists the distinct top level headings in display order. Adjacent
// heading rows with the same top level heading are reported once.
func (l *Layout) Headings() []Heading {
	var headings []Heading
	previous := ""
	for i := range l.Rows {
		row := &l.Rows[i]
		if row.Kind != RowHeading {
			continue
		}
		top := row.TopHeading()
		if len(headings) > 0 && top == previous {
			continue
		}
		headings = append(headings, Heading{Label: top, OffsetY: row.OffsetY})
		previous = top
	}
	return headings
}

// ScrollFraction maps a scroll offset to [0, 1] across the scrollable range
// of the gallery.
func ScrollFraction(l *Layout, scrollTop, viewportHeight float64) float64 {
	scrollable := l.GalleryHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return clamp01(scrollTop / scrollable)
}

// ScrollPosForFraction is the inverse of ScrollFraction
func ScrollPosForFraction(l *Layout, fraction, viewportHeight float64) float64 {
	scrollable := l.GalleryHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return clamp01(fraction) * scrollable
}

// HeadingFraction maps a heading offset to its relative position in the
// whole gallery, for placing markers on a scroll bar.
func HeadingFraction(l *Layout, h Heading) float64 {
	if l.GalleryHeight <= 0 {
		return 0
	}
	return clamp01(h.OffsetY / l.GalleryHeight)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
