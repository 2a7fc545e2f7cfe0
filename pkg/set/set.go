package set

import (
	"slices"
)

type Set[T comparable] map[T]struct{}

func New[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	s.Add(items...)
	return s
}

func (s Set[T]) Add(item ...T) {
	for _, i := range item {
		s[i] = struct{}{}
	}
}

func (s Set[T]) Remove(item T) {
	delete(s, item)
}

func (s Set[T]) Contains(item T) bool {
	_, ok := s[item]
	return ok
}

func (s Set[T]) Size() int {
	return len(s)
}

// Slice returns the elements in unspecified order.
func (s Set[T]) Slice() []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// SortedSlice returns the elements in ascending order, for deterministic output.
func SortedSlice[T interface {
	comparable
	~string
}](s Set[T]) []T {
	out := s.Slice()
	slices.Sort(out)
	return out
}
