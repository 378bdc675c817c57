package console

// Selection tracks which currently visible entity IDs are checked for bulk
// action. It is page-scoped: every refetch resets it, so stale IDs from a
// prior page can never leak into a bulk command.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// SelectOne adds or removes a single ID.
func (s *Selection) SelectOne(id int64, checked bool) {
	if checked {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

// SelectAll replaces the selection with all visible IDs, or clears it.
func (s *Selection) SelectAll(checked bool, visibleIDs []int64) {
	s.ids = make(map[int64]struct{}, len(visibleIDs))
	if !checked {
		return
	}
	for _, id := range visibleIDs {
		s.ids[id] = struct{}{}
	}
}

// AllSelected reports whether every visible ID is selected. An empty visible
// set is never "all selected", so an empty table never shows a checked
// select-all control.
func (s *Selection) AllSelected(visibleIDs []int64) bool {
	if len(visibleIDs) == 0 || len(s.ids) != len(visibleIDs) {
		return false
	}
	for _, id := range visibleIDs {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// IDs returns the selected IDs in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Size returns the number of selected IDs.
func (s *Selection) Size() int { return len(s.ids) }

// Reset clears the selection.
func (s *Selection) Reset() {
	s.ids = make(map[int64]struct{})
}
