package tui

import (
	"slices"
	"sync"

	"github.com/sahilm/fuzzy"
)

// PickerItem is one row of a picker
type PickerItem struct {
	Label    string
	Value    string
	Hint     string
	Selected bool
}

// PickerState backs the search key, facet, resource and view pickers
type PickerState struct {
	mu sync.RWMutex

	title   string
	multi   bool
	items   []PickerItem
	matches []int // indices into items, in display order
	query   string
	cursor  int
}

// NewPickerState creates a picker over items. Multi pickers toggle items,
// single pickers select one.
func NewPickerState(title string, items []PickerItem, multi bool) *PickerState {
	s := &PickerState{
		title: title,
		multi: multi,
		items: slices.Clone(items),
	}
	s.refilter()
	return s
}

// Title returns the picker title
func (s *PickerState) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// Multi reports whether several items can be selected
func (s *PickerState) Multi() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multi
}

// Query returns the fuzzy filter text
func (s *PickerState) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SetQuery filters items by fuzzy match on their label
func (s *PickerState) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if query == s.query {
		return
	}
	s.query = query
	s.refilter()
}

func (s *PickerState) refilter() {
	s.matches = s.matches[:0]
	if s.query == "" {
		for i := range s.items {
			s.matches = append(s.matches, i)
		}
	} else {
		labels := make([]string, len(s.items))
		for i, item := range s.items {
			labels[i] = item.Label
		}
		for _, match := range fuzzy.Find(s.query, labels) {
			s.matches = append(s.matches, match.Index)
		}
	}
	s.cursor = min(s.cursor, max(len(s.matches)-1, 0))
}

// Visible returns the items matching the query
func (s *PickerState) Visible() []PickerItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PickerItem, len(s.matches))
	for i, idx := range s.matches {
		out[i] = s.items[idx]
	}
	return out
}

// Cursor returns the index of the highlighted visible item
func (s *PickerState) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// SetCursorValue highlights the visible item with value
func (s *PickerState) SetCursorValue(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, idx := range s.matches {
		if s.items[idx].Value == value {
			s.cursor = i
			return
		}
	}
}

// MoveUp moves the highlight up, stopping at the first item
func (s *PickerState) MoveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the highlight down, stopping at the last item
func (s *PickerState) MoveDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor < len(s.matches)-1 {
		s.cursor++
	}
}

// Current returns the highlighted item
func (s *PickerState) Current() (PickerItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.matches) == 0 {
		return PickerItem{}, false
	}
	return s.items[s.matches[s.cursor]], true
}

// Toggle flips the selection of the highlighted item
func (s *PickerState) Toggle() (PickerItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.multi || len(s.matches) == 0 {
		return PickerItem{}, false
	}
	item := &s.items[s.matches[s.cursor]]
	item.Selected = !item.Selected
	return *item, true
}

// SetSelected marks exactly the items whose value is in values
func (s *PickerState) SetSelected(values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = slices.Contains(values, s.items[i].Value)
	}
}

// Selected returns the values of the selected items in item order
func (s *PickerState) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var values []string
	for _, item := range s.items {
		if item.Selected {
			values = append(values, item.Value)
		}
	}
	return values
}

// Remove drops the item with value
func (s *PickerState) Remove(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(item PickerItem) bool { return item.Value == value })
	s.refilter()
}

// Len returns the number of visible items
func (s *PickerState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}
