package layout

type RowKind uint8

const (
	RowItems RowKind = iota
	RowHeading
)

func (k RowKind) String() string {
	switch k {
	case RowItems:
		return "items"
	case RowHeading:
		return "heading"
	default:
		return "unknown"
	}
}

// Row is a tagged variant. Heading rows carry Headings, item rows carry
// Items (indices into Layout.Items), StartIndex and Width.
type Row struct {
	Kind  RowKind
	Group string

	// Headings is ordered innermost first, the last entry is the top level
	// heading.
	Headings []string

	Items      []int
	StartIndex int
	Width      float64

	OffsetY float64
	Height  float64
}

// Bottom returns the Y coordinate just below the row
func (r *Row) Bottom() float64 {
	return r.OffsetY + r.Height
}

// TopHeading returns the top level heading of a heading row, and the empty
// string for item rows.
func (r *Row) TopHeading() string {
	if len(r.Headings) == 0 {
		return ""
	}
	return r.Headings[len(r.Headings)-1]
}
