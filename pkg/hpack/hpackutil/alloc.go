package hpackutil

// Allocator models the four-operation allocator contract the codec treats
// as an external collaborator: allocate, zero-allocate, reallocate, and
// free, each scoped to an opaque user handle. Go's garbage collector makes
// the "free" leg a formality, but keeping the shape lets a caller plug in
// an arena or a pool-backed allocator for the decoder's scratch buffers
// (the encoder does not use an Allocator), the same way the reference C implementation
// lets its caller supply a custom mem_chunk.
type Allocator interface {
	Alloc(size int) []byte
	ZeroAlloc(size int) []byte
	Realloc(buf []byte, size int) []byte
	Free(buf []byte)
}

// DefaultAllocator is the Allocator every codec entry point falls back to
// when the caller doesn't supply one: ordinary Go slices, managed by the
// garbage collector.
type DefaultAllocator struct{}

func (DefaultAllocator) Alloc(size int) []byte { return make([]byte, size) }

func (DefaultAllocator) ZeroAlloc(size int) []byte { return make([]byte, size) }

func (DefaultAllocator) Realloc(buf []byte, size int) []byte {
	if cap(buf) >= size {
		return buf[:size]
	}
	grown := make([]byte, size)
	copy(grown, buf)
	return grown
}

func (DefaultAllocator) Free([]byte) {}
