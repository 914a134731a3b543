package layout

import "errors"

var (
	ErrInvalidGeometry = errors.New("the gallery width and target row height must be greater than zero")
	ErrGeometryChanged = errors.New("the gallery geometry differs from the layout being resumed")
	ErrItemNotFound    = errors.New("no item with that global index has been laid out")
)
