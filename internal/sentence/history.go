package sentence

// DefaultHistorySize is how many gestures the history keeps.
const DefaultHistorySize = 5

// History keeps the most recently displayed gesture labels, newest first.
type History struct {
	size  int
	items []string
}

// NewHistory returns a history bounded to size entries. A non-positive
// size falls back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:  size,
		items: make([]string, 0, size+1),
	}
}

// Push records label as the newest entry and evicts the oldest entries
// beyond the bound.
func (h *History) Push(label string) {
	h.items = append(h.items, "")
	copy(h.items[1:], h.items)
	h.items[0] = label
	if len(h.items) > h.size {
		h.items = h.items[:h.size]
	}
}

// Items returns a copy of the entries, newest first.
func (h *History) Items() []string {
	out := make([]string, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Size returns the bound.
func (h *History) Size() int {
	return h.size
}
