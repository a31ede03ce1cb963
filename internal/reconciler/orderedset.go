package reconciler

// orderedSet is an arrival-ordered string set with O(1) membership checks.
// The slice and the index are only ever updated together so they cannot
// diverge.
type orderedSet struct {
	order []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

// add appends v in arrival order. Returns false if v was already present.
func (s *orderedSet) add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet) len() int {
	return len(s.order)
}

// snapshot returns a copy of the current arrival order.
func (s *orderedSet) snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// reset replaces the set's contents, preserving the order of items.
func (s *orderedSet) reset(items []string) {
	s.order = items
	s.index = make(map[string]struct{}, len(items))
	for _, v := range items {
		s.index[v] = struct{}{}
	}
}
