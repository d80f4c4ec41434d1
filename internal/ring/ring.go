// Package ring implements the bounded byte log ("raw ring") a Session
// keeps of its child's output, so a crashed TUI's tail can be
// recovered even after the screen it painted is gone. It is a
// fixed-capacity circular byte buffer: once full, the oldest bytes are
// discarded to make room for new ones.
package ring

import (
	"bytes"
	"sync"
)

// Buffer is a thread-safe, fixed-capacity ring of bytes.
type Buffer struct {
	mu   sync.RWMutex
	buf  []byte
	head int // next write position
	size int // bytes currently stored, capped at cap(buf)
}

// New creates a ring with the given capacity in bytes. Capacity <= 0
// defaults to 64 KiB, the size the design suggests.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 64 * 1024
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Write appends data to the ring, evicting the oldest bytes if data
// doesn't fit. It always succeeds, satisfying io.Writer.
func (b *Buffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(data)
	cap := len(b.buf)
	if n >= cap {
		// only the tail fits; the buffer becomes entirely this write.
		copy(b.buf, data[n-cap:])
		b.head = 0
		b.size = cap
		return n, nil
	}
	for i := 0; i < n; i++ {
		b.buf[b.head] = data[i]
		b.head = (b.head + 1) % cap
	}
	b.size += n
	if b.size > cap {
		b.size = cap
	}
	return n, nil
}

// Bytes returns a copy of the buffered bytes, oldest first.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]byte, b.size)
	if b.size == 0 {
		return out
	}
	cap := len(b.buf)
	if b.size < cap {
		copy(out, b.buf[:b.size])
		return out
	}
	start := b.head
	for i := 0; i < b.size; i++ {
		out[i] = b.buf[(start+i)%cap]
	}
	return out
}

// LastLines returns the last n newline-separated lines of the ring.
func (b *Buffer) LastLines(n int) []string {
	if n <= 0 {
		return nil
	}
	data := b.Bytes()
	data = bytes.TrimRight(data, "\n")
	if len(data) == 0 {
		return nil
	}
	lines := bytes.Split(data, []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(bytes.TrimRight(l, "\r"))
	}
	return out
}

// Len reports how many bytes are currently buffered.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
