package thumbs

import "errors"

var (
	ErrIndexRange   = errors.New("the global index must not be negative")
	ErrPageNotFound = errors.New("the thumbnail page does not exist")
	ErrThumbMissing = errors.New("the thumbnail does not exist")
)
