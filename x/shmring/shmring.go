package shmring

import (
	"sync/atomic"
)

// Ring is a single-producer, single-consumer byte ring. Host UART ports use
// it to stage bytes between a blocking reader goroutine and RecvSomeContext.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	drops atomic.Uint32

	readable chan struct{} // 0 -> >0 available edge
}

// New allocates a ring; size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

func (r *Ring) Available() int { return int(r.wr.Load() - r.rd.Load()) }
func (r *Ring) Space() int     { return int(r.size()) - r.Available() }

// Drops counts bytes rejected by WriteFrom because the ring was full.
func (r *Ring) Drops() uint32 { return r.drops.Load() }

// WriteFrom copies as much of src as fits and returns the count. Bytes that
// do not fit are counted as drops.
func (r *Ring) WriteFrom(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	before := wr - rd
	n := int(r.size() - before)
	if n > len(src) {
		n = len(src)
	}
	if n < len(src) {
		r.drops.Add(uint32(len(src) - n))
	}
	if n == 0 {
		return 0
	}
	idx := wr & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(r.buf[idx:idx+uint32(first)], src[:first])
	if rest := n - first; rest > 0 {
		copy(r.buf[:rest], src[first:n])
	}
	r.wr.Store(wr + uint32(n))

	if before == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// ReadInto drains up to len(dst) bytes.
func (r *Ring) ReadInto(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	n := int(wr - rd)
	if n <= 0 {
		return 0
	}
	if n > len(dst) {
		n = len(dst)
	}
	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[idx:idx+uint32(first)])
	if rest := n - first; rest > 0 {
		copy(dst[first:n], r.buf[:rest])
	}
	r.rd.Store(rd + uint32(n))
	return n
}

// Readable fires on the empty -> non-empty transition.
func (r *Ring) Readable() <-chan struct{} { return r.readable }
