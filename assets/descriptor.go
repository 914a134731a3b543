package assets

import "time"

// Descriptor is the minimal asset record the gallery needs. The json names
// match the metadata records written by the asset store.
type Descriptor struct {
	ID           string    `json:"_id"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	SortDate     time.Time `json:"sortDate"`
	Labels       []string  `json:"labels,omitempty"`
	Description  string    `json:"description,omitempty"`
	Hash         string    `json:"hash,omitempty"`
	OrigFileName string    `json:"origFileName,omitempty"`
	Group        string    `json:"group,omitempty"`

	// GlobalIndex is assigned by the Enumeration, never by the source
	GlobalIndex int `json:"-"`
}

// Page is one response from a paginated asset listing. An empty Next means
// the listing is complete.
type Page struct {
	Assets []Descriptor `json:"assets"`
	Next   string       `json:"next,omitempty"`
}

// GroupFunc computes the grouping key of a descriptor
type GroupFunc func(d *Descriptor) string

const (
	MonthGroupFormat = "Jan, 2006"
	UndatedGroup     = "Undated"
)

// MonthGroup groups assets by the month of their sort date
func MonthGroup(d *Descriptor) string {
	if d.SortDate.IsZero() {
		return UndatedGroup
	}
	return d.SortDate.Format(MonthGroupFormat)
}

// SourceGroup keeps whatever group the source supplied
func SourceGroup(d *Descriptor) string {
	return d.Group
}
