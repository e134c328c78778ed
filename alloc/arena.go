package alloc

import (
	"sync"
	"unsafe"
)

// DefaultChunkSize is the default chunk size for new arenas (1 MiB).
const DefaultChunkSize = 1 << 20

// chunk is a single slab of arena memory.
type chunk struct {
	buf    []byte  // backing memory
	offset uintptr // bump offset within buf
}

// Arena is a mutex-protected chunked bump allocator. Blocks are carved
// sequentially out of large chunks; individual frees are only accounted for
// and the memory comes back in bulk on Reset or Release.
type Arena struct {
	mu        sync.Mutex
	chunks    []chunk
	chunkSize int
	freed     int

	// last carve in the current chunk, for in-place extension
	lastStart uintptr
	lastSize  uintptr
}

// NewArena creates an arena with the given chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func NewArena(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

// AllocBytes returns n bytes from the arena, aligned to pointer size.
// Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.carve(uintptr(n))
}

// carve bumps the current chunk, growing the arena when it is exhausted.
// Callers hold a.mu.
func (a *Arena) carve(n uintptr) []byte {
	a.panicIfReleased()
	c := &a.chunks[len(a.chunks)-1]
	off := alignPtr(c.offset)
	if off+n > uintptr(len(c.buf)) {
		a.grow(int(n))
		c = &a.chunks[len(a.chunks)-1]
		off = 0
	}
	c.offset = off + n
	a.lastStart, a.lastSize = off, n
	return unsafe.Slice((*byte)(unsafe.Pointer(&c.buf[off])), int(n))
}

// extend grows the most recent carve to n bytes when it starts at base and
// the current chunk still has room. Callers hold a.mu.
func (a *Arena) extend(base unsafe.Pointer, n uintptr) ([]byte, bool) {
	c := &a.chunks[len(a.chunks)-1]
	if a.lastSize == 0 || base != unsafe.Pointer(&c.buf[a.lastStart]) {
		return nil, false
	}
	if a.lastStart+n > uintptr(len(c.buf)) {
		return nil, false
	}
	c.offset = a.lastStart + n
	a.lastSize = n
	return unsafe.Slice((*byte)(base), int(n)), true
}

// Reset rewinds the arena to its first chunk and drops the others. Every
// block handed out before Reset becomes invalid.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()
	a.chunks[0].offset = 0
	clear(a.chunks[1:])
	a.chunks = a.chunks[:1]
	a.freed = 0
	a.lastStart, a.lastSize = 0, 0
}

// Release drops all chunks and makes the arena unusable.
// Any subsequent allocation panics.
func (a *Arena) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = nil
	a.freed = 0
	a.lastStart, a.lastSize = 0, 0
}

// grow appends a new chunk of at least min bytes.
func (a *Arena) grow(min int) {
	size := a.chunkSize
	if min > size {
		size = min
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, size)})
	a.lastStart, a.lastSize = 0, 0
}

func (a *Arena) panicIfReleased() {
	if a.chunks == nil {
		panic("alloc: use after Release()")
	}
}

// alignPtr aligns the offset up to pointer size alignment.
func alignPtr(off uintptr) uintptr {
	const align = unsafe.Sizeof(uintptr(0))
	mask := align - 1
	return (off + mask) & ^mask
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse   int     // Bytes carved, including alignment padding
	FreedBytes  int     // Bytes returned through Deallocate since the last Reset
	Capacity    int     // Total capacity in bytes
	NumChunks   int     // Number of chunks
	ChunkSize   int     // Default chunk size
	Utilization float64 // Ratio of live (carved minus freed) to total capacity
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := ArenaMetrics{ChunkSize: a.chunkSize, FreedBytes: a.freed}
	if a.chunks == nil {
		return m
	}
	m.NumChunks = len(a.chunks)
	for _, c := range a.chunks {
		m.SizeInUse += int(c.offset)
		m.Capacity += len(c.buf)
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.SizeInUse-m.FreedBytes) / float64(m.Capacity)
	}
	return m
}
