package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
)

var (
	ErrEnumerationDone = errors.New("the asset enumeration is complete")
)

// Source lists assets a page at a time. cursor is empty for the first page
// and is otherwise the Next value of the previous page.
type Source interface {
	ListAssets(ctx context.Context, cursor string) (Page, error)
}

type EnumerationOption func(*Enumeration)

// WithGroupFunc replaces the default MonthGroup grouping
func WithGroupFunc(group GroupFunc) EnumerationOption {
	return func(e *Enumeration) {
		e.group = group
	}
}

// Enumeration pulls batches of descriptors from a Source and assigns each a
// global index. It can't be rewound, start again with a new Enumeration.
type Enumeration struct {
	log    logger.Logger
	source Source
	group  GroupFunc

	cursor    string
	nextIndex int
	done      bool
}

func NewEnumeration(log logger.Logger, source Source, opts ...EnumerationOption) *Enumeration {
	e := &Enumeration{
		log:    log,
		source: source,
		group:  MonthGroup,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Next returns the next batch. done is true when the returned batch is the
// last one. On error the enumeration position is unchanged, so Next may be
// called again to retry the same page.
func (e *Enumeration) Next(ctx context.Context) ([]Descriptor, bool, error) {
	if e.done {
		return nil, true, ErrEnumerationDone
	}

	page, err := e.source.ListAssets(ctx, e.cursor)
	if err != nil {
		return nil, false, fmt.Errorf("listing assets after %q: %w", e.cursor, err)
	}

	batch := page.Assets
	for i := range batch {
		batch[i].GlobalIndex = e.nextIndex
		e.nextIndex++
		if e.group != nil {
			batch[i].Group = e.group(&batch[i])
		}
	}

	e.cursor = page.Next
	e.done = page.Next == ""
	e.log.Debugf("enumeration: added %d assets, %d total", len(batch), e.nextIndex)
	return batch, e.done, nil
}

// Count returns the number of descriptors enumerated so far
func (e *Enumeration) Count() int {
	return e.nextIndex
}

// Done reports whether the last page has been returned
func (e *Enumeration) Done() bool {
	return e.done
}
