package pageformat

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// OffsetBytes is the width of a single header slot
	OffsetBytes = 4

	// DefaultPageSize is the number of thumbnails per page used by the
	// thumbnail service.
	DefaultPageSize = 100

	// DefaultContentType is reported for every image extracted from a page.
	DefaultContentType = "image/jpeg"
)

// HeaderSize returns the number of bytes occupied by the offset table of a
// page with pageSize slots.
func HeaderSize(pageSize int) int {
	return pageSize * OffsetBytes
}

// PageIndex returns the page holding the thumbnail for globalIndex
func PageIndex(globalIndex int, pageSize int) uint32 {
	return uint32(globalIndex / pageSize)
}

// SlotIndex returns the position of globalIndex within its page
func SlotIndex(globalIndex int, pageSize int) int {
	return globalIndex % pageSize
}

// FirstGlobalIndex returns the global index of slot zero in the page
func FirstGlobalIndex(pageIndex uint32, pageSize int) int {
	return int(pageIndex) * pageSize
}

// EncodePage packs images into a page with pageSize slots. images may hold
// fewer than pageSize entries, the remaining slots are left zero.
func EncodePage(images [][]byte, pageSize int) ([]byte, error) {
	if pageSize <= 0 {
		return nil, ErrPageSizeInvalid
	}
	if len(images) > pageSize {
		return nil, fmt.Errorf("%w: %d images for %d slots", ErrPageOverfull, len(images), pageSize)
	}

	total := HeaderSize(pageSize)
	for _, img := range images {
		total += len(img)
	}
	if total > math.MaxUint32 {
		return nil, ErrPageTooLarge
	}

	page := make([]byte, HeaderSize(pageSize), total)
	for i, img := range images {
		binary.LittleEndian.PutUint32(page[i*OffsetBytes:(i+1)*OffsetBytes], uint32(len(page)))
		page = append(page, img...)
	}
	return page, nil
}

// DecodeHeader returns the pageSize offsets at the front of page.
func DecodeHeader(page []byte, pageSize int) ([]uint32, error) {
	if pageSize <= 0 {
		return nil, ErrPageSizeInvalid
	}
	if len(page) < HeaderSize(pageSize) {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrPageTooShort, len(page), HeaderSize(pageSize))
	}
	offsets := make([]uint32, pageSize)
	for i := range offsets {
		offsets[i] = readOffset(page, i)
	}
	return offsets, nil
}

// SlotRange returns the byte range [start, end) of the image in slot.
//
// No allocation is made, which makes this suitable for the hot path where the
// page is already resident and only a single slot is wanted.
func SlotRange(page []byte, pageSize int, slot int) (start int, end int, err error) {
	if pageSize <= 0 {
		return 0, 0, ErrPageSizeInvalid
	}
	headerEnd := HeaderSize(pageSize)
	if len(page) < headerEnd {
		return 0, 0, fmt.Errorf("%w: %d bytes, need %d", ErrPageTooShort, len(page), headerEnd)
	}
	if slot < 0 || slot >= pageSize {
		return 0, 0, fmt.Errorf("%w: slot %d, page size %d", ErrSlotRange, slot, pageSize)
	}

	offset := readOffset(page, slot)
	if offset == 0 {
		return 0, 0, ErrSlotEmpty
	}

	var next uint32
	if slot+1 < pageSize {
		next = readOffset(page, slot+1)
	}

	start = int(offset)
	end = len(page)
	if next != 0 {
		end = int(next)
	}

	if start < headerEnd || start > len(page) || end > len(page) || end < start {
		return 0, 0, fmt.Errorf(
			"%w: slot %d [%d, %d) header %d buffer %d", ErrMalformedSlot, slot, start, end, headerEnd, len(page))
	}
	return start, end, nil
}

// ExtractSlot returns a copy of the image in slot. The copy is independent of
// page so the page buffer can be released while the image remains in use.
func ExtractSlot(page []byte, pageSize int, slot int) ([]byte, error) {
	start, end, err := SlotRange(page, pageSize, slot)
	if err != nil {
		return nil, err
	}
	img := make([]byte, end-start)
	copy(img, page[start:end])
	return img, nil
}

// CountImages returns the number of populated slots, which always form a
// prefix of the header.
func CountImages(page []byte, pageSize int) (int, error) {
	offsets, err := DecodeHeader(page, pageSize)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range offsets {
		if o == 0 {
			break
		}
		n++
	}
	return n, nil
}

func readOffset(page []byte, slot int) uint32 {
	return binary.LittleEndian.Uint32(page[slot*OffsetBytes : (slot+1)*OffsetBytes])
}
