package gallery

import (
	"context"
	"fmt"
	"slices"

	"github.com/forestrie/go-gallerygrid/layout"
)

// Item returns a copy of the laid out item at globalIndex
func (s *Session) Item(globalIndex int) (layout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.layout.ItemByGlobalIndex(globalIndex)
	if err != nil {
		return layout.Item{}, err
	}
	return copyItem(it), nil
}

func copyItem(it *layout.Item) layout.Item {
	cpy := *it
	cpy.Labels = slices.Clone(it.Labels)
	return cpy
}

// Select marks the item at globalIndex as selected
func (s *Session) Select(globalIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.layout.ItemByGlobalIndex(globalIndex); err != nil {
		return err
	}
	s.selected = globalIndex
	return nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = -1
}

// Selected returns the selected item
func (s *Session) Selected() (layout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected < 0 {
		return layout.Item{}, ErrNoSelection
	}
	it, err := s.layout.ItemByGlobalIndex(s.selected)
	if err != nil {
		return layout.Item{}, err
	}
	return copyItem(it), nil
}

// Next returns the item after globalIndex in display order
func (s *Session) Next(globalIndex int) (layout.Item, error) {
	return s.neighbour(globalIndex, 1)
}

// Prev returns the item before globalIndex in display order
func (s *Session) Prev(globalIndex int) (layout.Item, error) {
	return s.neighbour(globalIndex, -1)
}

// SelectNext moves the selection forward and returns the newly selected item
func (s *Session) SelectNext() (layout.Item, error) {
	return s.moveSelection(1)
}

// SelectPrev moves the selection back and returns the newly selected item
func (s *Session) SelectPrev() (layout.Item, error) {
	return s.moveSelection(-1)
}

func (s *Session) moveSelection(step int) (layout.Item, error) {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()
	if selected < 0 {
		return layout.Item{}, ErrNoSelection
	}
	it, err := s.neighbour(selected, step)
	if err != nil {
		return layout.Item{}, err
	}
	if err := s.Select(it.GlobalIndex); err != nil {
		return layout.Item{}, err
	}
	return it, nil
}

func (s *Session) neighbour(globalIndex int, step int) (layout.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.layout.Items
	i, found := slices.BinarySearchFunc(items, globalIndex, func(it layout.Item, target int) int {
		return it.GlobalIndex - target
	})
	if !found {
		return layout.Item{}, fmt.Errorf("%w: %d", layout.ErrItemNotFound, globalIndex)
	}
	j := i + step
	if j < 0 || j >= len(items) {
		return layout.Item{}, ErrNoNeighbour
	}
	return copyItem(&items[j]), nil
}

// AddLabel attaches label to the item at globalIndex and, if an updater is
// configured, persists it. The local edit is reverted if persisting fails.
func (s *Session) AddLabel(ctx context.Context, globalIndex int, label string) error {
	id, changed, err := s.edit(globalIndex, func(it *layout.Item) bool {
		if it.HasLabel(label) {
			return false
		}
		it.Labels = append(it.Labels, label)
		return true
	})
	if err != nil || !changed || s.opts.updater == nil {
		return err
	}
	if err := s.opts.updater.AddLabel(ctx, id, label); err != nil {
		_, _, _ = s.edit(globalIndex, func(it *layout.Item) bool {
			it.Labels = slices.DeleteFunc(it.Labels, func(l string) bool { return l == label })
			return true
		})
		return fmt.Errorf("adding label %q to %s: %w", label, id, err)
	}
	return nil
}

// RemoveLabel detaches label from the item at globalIndex
func (s *Session) RemoveLabel(ctx context.Context, globalIndex int, label string) error {
	id, changed, err := s.edit(globalIndex, func(it *layout.Item) bool {
		if !it.HasLabel(label) {
			return false
		}
		it.Labels = slices.DeleteFunc(it.Labels, func(l string) bool { return l == label })
		return true
	})
	if err != nil || !changed || s.opts.updater == nil {
		return err
	}
	if err := s.opts.updater.RemoveLabel(ctx, id, label); err != nil {
		_, _, _ = s.edit(globalIndex, func(it *layout.Item) bool {
			it.Labels = append(it.Labels, label)
			return true
		})
		return fmt.Errorf("removing label %q from %s: %w", label, id, err)
	}
	return nil
}

// SetDescription replaces the description of the item at globalIndex
func (s *Session) SetDescription(ctx context.Context, globalIndex int, description string) error {
	var previous string
	id, changed, err := s.edit(globalIndex, func(it *layout.Item) bool {
		if it.Description == description {
			return false
		}
		previous = it.Description
		it.Description = description
		return true
	})
	if err != nil || !changed || s.opts.updater == nil {
		return err
	}
	if err := s.opts.updater.SetDescription(ctx, id, description); err != nil {
		_, _, _ = s.edit(globalIndex, func(it *layout.Item) bool {
			it.Description = previous
			return true
		})
		return fmt.Errorf("setting description of %s: %w", id, err)
	}
	return nil
}

// edit applies fn to the item under the session lock, the layout engine never
// touches labels or descriptions.
func (s *Session) edit(globalIndex int, fn func(it *layout.Item) bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.layout.ItemByGlobalIndex(globalIndex)
	if err != nil {
		return "", false, err
	}
	return it.ID, fn(it), nil
}
