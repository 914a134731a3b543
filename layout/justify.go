package layout

// justify stretches row so its width fills the gallery. See the package
// documentation for the three stages.
func (l *Layout) justify(row *Row) {
	if len(row.Items) == 0 {
		return
	}

	delta := (l.GalleryWidth - row.Width) / float64(len(row.Items))
	var tallest float64
	for _, ix := range row.Items {
		it := &l.Items[ix]
		tallest = max(tallest, (it.ThumbWidth+delta)/it.AspectRatio)
	}

	good := tallest
	if l.widthAt(row, good) >= l.GalleryWidth {
		var short float64

		// Geometric pullback, the last height that still reaches the gallery
		// width is kept.
		pullback := 1.0
		for i := 0; i < maxPullbackStep; i++ {
			h := tallest - pullback
			if h <= 0 {
				break
			}
			if l.widthAt(row, h) < l.GalleryWidth {
				short = h
				break
			}
			good = h
			pullback *= 2
		}

		// Refine within [short, good]. good always reaches the gallery width.
		for i := 0; i < maxRefineSteps; i++ {
			if l.widthAt(row, good)-l.GalleryWidth < JustifyTolerance {
				break
			}
			mid := (short + good) / 2
			if l.widthAt(row, mid) < l.GalleryWidth {
				short = mid
			} else {
				good = mid
			}
		}
	}
	l.setRowHeight(row, good)
}

func (l *Layout) widthAt(row *Row, height float64) float64 {
	var width float64
	for _, ix := range row.Items {
		width += height * l.Items[ix].AspectRatio
	}
	return width
}

func (l *Layout) setRowHeight(row *Row, height float64) {
	row.Height = height
	row.Width = 0
	for _, ix := range row.Items {
		it := &l.Items[ix]
		it.scaleToHeight(height)
		it.OffsetX = row.Width
		row.Width += it.ThumbWidth
	}
}
