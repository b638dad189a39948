// Package ring provides a fixed-capacity float64 ring buffer that keeps a
// running sum of its slots.
package ring

// Buffer holds a fixed number of slots. Slots start at zero and Push overwrites
// the oldest one, so Mean is zero-padded until the buffer has wrapped once.
//
// Not safe for concurrent use.
type Buffer struct {
	slots []float64
	next  int
	sum   float64
}

// New returns a zeroed buffer with n slots. n < 1 is treated as 1.
func New(n int) *Buffer {
	if n < 1 {
		n = 1
	}
	return &Buffer{slots: make([]float64, n)}
}

// Push stores v in place of the oldest slot and returns the evicted value.
func (b *Buffer) Push(v float64) (evicted float64) {
	evicted = b.slots[b.next]
	b.sum -= evicted
	b.slots[b.next] = v
	b.sum += v
	b.next = (b.next + 1) % len(b.slots)
	return evicted
}

// Mean is the slot sum divided by the capacity, counting unfilled slots as 0.
func (b *Buffer) Mean() float64 {
	return b.sum / float64(len(b.slots))
}
