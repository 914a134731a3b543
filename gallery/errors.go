package gallery

import "errors"

var (
	ErrSessionClosed   = errors.New("the gallery session is closed")
	ErrNoSelection     = errors.New("no item is selected")
	ErrNoNeighbour     = errors.New("there is no item in that direction")
	ErrStoreRequired   = errors.New("a blob store reader is required for the azblob source")
	ErrBuildIncomplete = errors.New("the layout build stopped before the enumeration was exhausted")
)
