package nav

// History models the browser history stack: user-initiated activations
// push, URL-driven reconciliation replaces.
type History struct {
	entries []string
	pos     int
}

func NewHistory(initial string) *History {
	return &History{entries: []string{initial}}
}

// Push appends a new entry, dropping any forward entries.
func (h *History) Push(path string) {
	if h.Current() == path {
		return
	}
	h.entries = append(h.entries[:h.pos+1], path)
	h.pos++
}

// Replace swaps the current entry in place.
func (h *History) Replace(path string) {
	h.entries[h.pos] = path
}

// Current returns the entry at the cursor.
func (h *History) Current() string {
	return h.entries[h.pos]
}

// Back moves the cursor back one entry and returns it; false at the
// beginning of the stack.
func (h *History) Back() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves the cursor forward one entry and returns it.
func (h *History) Forward() (string, bool) {
	if h.pos >= len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Len returns the stack depth.
func (h *History) Len() int {
	return len(h.entries)
}
