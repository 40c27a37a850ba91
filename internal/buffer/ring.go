package buffer

// Ring is a fixed-capacity buffer that keeps the most recent entries.
// It backs the log buffer and the engine's run history.
type Ring[T any] struct {
	slots []T
	head  int
	count int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{
		slots: make([]T, capacity),
	}
}

func (r *Ring[T]) Add(entry T) {
	if r == nil || len(r.slots) == 0 {
		return
	}

	if r.count < len(r.slots) {
		r.slots[(r.head+r.count)%len(r.slots)] = entry
		r.count++
		return
	}

	r.slots[r.head] = entry
	r.head = (r.head + 1) % len(r.slots)
}

func (r *Ring[T]) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

func (r *Ring[T]) Cap() int {
	if r == nil {
		return 0
	}
	return len(r.slots)
}

// Last returns the most recently added entry.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r == nil || r.count == 0 {
		return zero, false
	}
	return r.slots[(r.head+r.count-1)%len(r.slots)], true
}

// List returns the retained entries, oldest first.
func (r *Ring[T]) List() []T {
	if r == nil || r.count == 0 {
		return nil
	}

	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return out
}
