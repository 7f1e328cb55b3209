// Package ring provides a fixed-capacity circular buffer and the
// windowed statistics helpers used by the signal pipeline.
package ring

// Buffer is a fixed-capacity FIFO. Push is O(1) and overwrites the
// oldest element once the buffer is full; the buffer never grows.
type Buffer[T any] struct {
	data []T
	head int // index of the oldest element
	size int
}

// New creates a Buffer with the given capacity. Capacity must be
// positive; a non-positive value is clamped to 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		data: make([]T, capacity),
	}
}

// Push appends v, evicting the oldest element if the buffer is full.
func (b *Buffer[T]) Push(v T) {
	if b.size < len(b.data) {
		b.data[(b.head+b.size)%len(b.data)] = v
		b.size++
		return
	}
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// Full reports whether the buffer holds Cap() elements.
func (b *Buffer[T]) Full() bool {
	return b.size == len(b.data)
}

// At returns the i-th element, oldest first. It panics if i is out of
// range, matching slice semantics.
func (b *Buffer[T]) At(i int) T {
	if i < 0 || i >= b.size {
		panic("ring: index out of range")
	}
	return b.data[(b.head+i)%len(b.data)]
}

// Last returns the most recently pushed element and false if empty.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.data[(b.head+b.size-1)%len(b.data)], true
}

// Slice copies the contents oldest-first into dst, reusing it when the
// capacity suffices, and returns the destination slice.
func (b *Buffer[T]) Slice(dst []T) []T {
	if cap(dst) >= b.size {
		dst = dst[:b.size]
	} else {
		dst = make([]T, b.size)
	}
	for i := 0; i < b.size; i++ {
		dst[i] = b.data[(b.head+i)%len(b.data)]
	}
	return dst
}

// Reset discards all elements but keeps the allocation.
func (b *Buffer[T]) Reset() {
	b.head = 0
	b.size = 0
}
