// Package ring provides a fixed-capacity FIFO buffer that evicts the
// oldest element on overflow. Push is O(1); there is no shifting.
package ring

// Buffer holds up to cap elements, discarding the oldest when full.
type Buffer[T any] struct {
	buf   []T
	head  int
	count int
}

func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element if the buffer is full.
func (b *Buffer[T]) Push(v T) {
	tail := (b.head + b.count) % len(b.buf)
	b.buf[tail] = v
	if b.count < len(b.buf) {
		b.count++
		return
	}
	b.head = (b.head + 1) % len(b.buf)
}

func (b *Buffer[T]) Len() int { return b.count }

func (b *Buffer[T]) Cap() int { return len(b.buf) }

// Items returns a copy of the contents, oldest first.
func (b *Buffer[T]) Items() []T {
	out := make([]T, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.buf[(b.head+i)%len(b.buf)])
	}
	return out
}

// Last returns the newest element, if any.
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	return b.buf[(b.head+b.count-1)%len(b.buf)], true
}

func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.buf {
		b.buf[i] = zero
	}
	b.head, b.count = 0, 0
}

// Replace resets the buffer to items, keeping only the newest cap entries.
func (b *Buffer[T]) Replace(items []T) {
	b.Clear()
	if len(items) > len(b.buf) {
		items = items[len(items)-len(b.buf):]
	}
	for _, v := range items {
		b.Push(v)
	}
}

// DropNewest removes and returns the newest element.
func (b *Buffer[T]) DropNewest() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	idx := (b.head + b.count - 1) % len(b.buf)
	v := b.buf[idx]
	b.buf[idx] = zero
	b.count--
	return v, true
}
