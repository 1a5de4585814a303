package util

// Stack is a LIFO of values. The zero value is an empty stack
type Stack[A any] struct {
	items []A
}

func (s *Stack[A]) Push(v A) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top of the stack
func (s *Stack[A]) Pop() (ret A, ok bool) {
	ret, ok = s.Peek()
	if ok {
		s.items = s.items[:len(s.items)-1]
	}
	return ret, ok
}

// Peek returns the top of the stack without removing it
func (s *Stack[A]) Peek() (ret A, ok bool) {
	if len(s.items) == 0 {
		return ret, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[A]) Len() int {
	return len(s.items)
}
