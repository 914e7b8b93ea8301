package goofx

// tagStack holds the names of the currently open aggregates, outermost first. The element parser
// pushes a name on entering an aggregate and pops it on the matching close tag.
type tagStack struct {
	items []string
}

// newTagStack returns an initialized empty stack.
func newTagStack() *tagStack {
	return &tagStack{items: make([]string, 0, 8)}
}

// Push adds the given name to top of stack.
func (s *tagStack) Push(name string) {
	s.items = append(s.items, name)
}

// Pop removes and returns the topmost name of the stack.
func (s *tagStack) Pop() (string, bool) {
	l := len(s.items)
	if l == 0 {
		return "", false
	}
	name := s.items[l-1]
	s.items = s.items[:l-1]
	return name, true
}

// Contains reports whether name is open anywhere on the stack.
func (s *tagStack) Contains(name string) bool {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i] == name {
			return true
		}
	}
	return false
}

// Size returns the current size of the stack.
func (s *tagStack) Size() int {
	return len(s.items)
}

// Dump returns a copy of the stack for debugging.
func (s *tagStack) Dump() []string {
	return append([]string(nil), s.items...)
}
