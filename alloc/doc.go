// Package alloc provides the block allocators used by growvec containers.
//
// Every backend implements Allocator[T]:
//
//   - Heap: the Go heap, works for any T (default)
//   - ArenaAllocator: blocks carved out of a chunked bump Arena
//   - Mmap: one anonymous mapping per block (linux, darwin)
//
// and two wrappers add checks on top of any backend:
//
//   - Tracking: records live blocks, panics on double free, optional poison
//   - Budget: caps live elements, failing with ErrOutOfMemory
//
// Byte-backed backends (ArenaAllocator, Mmap) require a Scalar element type
// because the garbage collector does not scan their memory.
package alloc
