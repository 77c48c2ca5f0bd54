package common

import (
	"fmt"
	"math/rand"
)

// BoundedSet is an unordered set of unique elements whose size never exceeds
// a capacity. The capacity can be changed at any time; lowering it below the
// current size does not evict anything, it only causes further insertions to
// fail until enough elements have been removed.
//
// A BoundedSet is not safe for concurrent use.
type BoundedSet[E comparable] struct {
	capacity int
	items    map[E]struct{}
}

// NewBoundedSet returns an empty BoundedSet with the given capacity.
func NewBoundedSet[E comparable](capacity int) *BoundedSet[E] {
	return &BoundedSet[E]{
		capacity: capacity,
		items:    make(map[E]struct{}, capacity),
	}
}

// NewBoundedSetFrom returns a BoundedSet pre-populated with elems. It panics if
// the number of unique elements exceeds capacity.
func NewBoundedSetFrom[E comparable](capacity int, elems ...E) *BoundedSet[E] {
	items := make(map[E]struct{}, capacity)
	for _, e := range elems {
		items[e] = struct{}{}
	}

	if len(items) > capacity {
		panic(fmt.Sprintf("BoundedSet: %d initial elements exceed capacity %d", len(items), capacity))
	}

	return &BoundedSet[E]{
		capacity: capacity,
		items:    items,
	}
}

// Capacity returns the maximum number of elements the set accepts.
func (s *BoundedSet[E]) Capacity() int {
	return s.capacity
}

// SetCapacity changes the capacity. Existing elements are kept even if there
// are more of them than the new capacity.
func (s *BoundedSet[E]) SetCapacity(capacity int) {
	s.capacity = capacity
}

// Len returns the number of elements in the set.
func (s *BoundedSet[E]) Len() int {
	return len(s.items)
}

// IsFull reports whether no more elements can be inserted.
func (s *BoundedSet[E]) IsFull() bool {
	return len(s.items) >= s.capacity
}

// Contains reports whether e belongs to the set.
func (s *BoundedSet[E]) Contains(e E) bool {
	_, ok := s.items[e]
	return ok
}

// Insert adds e to the set if there is room left. Inserting an element that
// is already present succeeds without changing the size, as long as the set
// is below capacity.
func (s *BoundedSet[E]) Insert(e E) bool {
	if len(s.items) >= s.capacity {
		return false
	}
	s.items[e] = struct{}{}
	return true
}

// Remove deletes e from the set and reports whether it was present.
func (s *BoundedSet[E]) Remove(e E) bool {
	if _, ok := s.items[e]; !ok {
		return false
	}
	delete(s.items, e)
	return true
}

// SampleOne returns a random element of the set. The second return value is
// false if the set is empty.
func (s *BoundedSet[E]) SampleOne() (E, bool) {
	var zero E

	if len(s.items) == 0 {
		return zero, false
	}

	i := rand.Intn(len(s.items))
	for e := range s.items {
		if i == 0 {
			return e, true
		}
		i--
	}

	return zero, false
}

// Sample returns up to max distinct random elements of the set.
func (s *BoundedSet[E]) Sample(max int) []E {
	if max <= 0 || len(s.items) == 0 {
		return []E{}
	}

	elems := s.Elements()
	rand.Shuffle(len(elems), func(i, j int) {
		elems[i], elems[j] = elems[j], elems[i]
	})

	if max < len(elems) {
		elems = elems[:max]
	}

	return elems
}

// Elements returns a copy of all the elements, in no particular order.
func (s *BoundedSet[E]) Elements() []E {
	res := make([]E, 0, len(s.items))
	for e := range s.items {
		res = append(res, e)
	}
	return res
}

// BoundedUnion merges toMerge into the set without exceeding the capacity.
// The set is refilled in three passes, each only while room remains: first
// the elements of toMerge, then the current members that are not in
// dropPriority, and finally the current members that are in dropPriority.
// Whatever does not fit is dropped.
func (s *BoundedSet[E]) BoundedUnion(toMerge []E, dropPriority []E) {
	old := s.items
	s.items = make(map[E]struct{}, s.capacity)

	prio := make(map[E]struct{}, len(dropPriority))
	for _, e := range dropPriority {
		prio[e] = struct{}{}
	}

	for _, e := range toMerge {
		if !s.Insert(e) {
			return
		}
	}

	for e := range old {
		if _, ok := prio[e]; ok {
			continue
		}
		if !s.Insert(e) {
			return
		}
	}

	for e := range old {
		if _, ok := prio[e]; !ok {
			continue
		}
		if !s.Insert(e) {
			return
		}
	}
}

// Clone returns a copy of the set with the same capacity.
func (s *BoundedSet[E]) Clone() *BoundedSet[E] {
	items := make(map[E]struct{}, len(s.items))
	for e := range s.items {
		items[e] = struct{}{}
	}
	return &BoundedSet[E]{
		capacity: s.capacity,
		items:    items,
	}
}

// Equal reports whether both sets have the same capacity and elements.
func (s *BoundedSet[E]) Equal(other *BoundedSet[E]) bool {
	if s.capacity != other.capacity || len(s.items) != len(other.items) {
		return false
	}
	for e := range s.items {
		if _, ok := other.items[e]; !ok {
			return false
		}
	}
	return true
}
