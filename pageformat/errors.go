package pageformat

import "errors"

var (
	ErrPageSizeInvalid = errors.New("the page size must be greater than zero")
	ErrPageTooShort    = errors.New("the page buffer is too short to hold the offset header")
	ErrPageOverfull    = errors.New("more images were supplied than the page has slots")
	ErrPageTooLarge    = errors.New("the page contents exceed the range of a 32 bit offset")
	ErrSlotRange       = errors.New("the slot index is outside the page")
	ErrSlotEmpty       = errors.New("the slot does not hold an image")
	ErrMalformedSlot   = errors.New("the slot offsets are inconsistent with the page buffer")
)
