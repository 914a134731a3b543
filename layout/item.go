package layout

// Item is a single thumbnail in the gallery.
//
// ID, Width, Height, Group and GlobalIndex come from the asset enumeration.
// The remaining numeric fields are computed by ComputePartialLayout and are
// only written by it. Labels and Description are caller owned and only change
// through the gallery session's update path.
type Item struct {
	ID          string
	Width       int
	Height      int
	Group       string
	GlobalIndex int

	Labels      []string
	Description string

	AspectRatio float64
	ThumbWidth  float64
	ThumbHeight float64
	OffsetX     float64
}

// HasLabel reports whether label is set on the item
func (it *Item) HasLabel(label string) bool {
	for _, l := range it.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (it *Item) scaleToHeight(height float64) {
	it.ThumbHeight = height
	it.ThumbWidth = height * it.AspectRatio
}
