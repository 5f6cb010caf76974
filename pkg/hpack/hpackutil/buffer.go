// Package hpackutil provides the buffer and allocator plumbing the HPACK
// codec treats as an external collaborator: a growable byte chain for
// encoder output, a pool that hands those chains out and reclaims them,
// and an Allocator for the decoder's scratch space.
package hpackutil

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

// Buffer is a growable, contiguous byte chain: append, current length, and
// a byte-slice view of everything written so far. The hpack package itself
// takes and returns plain []byte; a caller such as cmd/hpackcat moves the
// encoder's output in and out of a Buffer with Bytes and SetBytes.
type Buffer struct {
	b *bytebufferpool.ByteBuffer
}

// Append adds p to the end of the buffer, growing its backing storage as
// needed, and returns the number of bytes written (always len(p)).
func (buf *Buffer) Append(p []byte) (int, error) {
	return buf.b.Write(p)
}

// AppendString is Append for a string, avoiding an intermediate []byte
// conversion at the call site.
func (buf *Buffer) AppendString(s string) (int, error) {
	return buf.b.WriteString(s)
}

// Bytes returns a view of everything appended so far. The slice is only
// valid until the next Append or Reset call.
func (buf *Buffer) Bytes() []byte {
	return buf.b.Bytes()
}

// Len returns the total number of bytes appended so far.
func (buf *Buffer) Len() int {
	return buf.b.Len()
}

// Reset empties the buffer without releasing its backing storage, so a
// pooled Buffer can be reused for the next header block.
func (buf *Buffer) Reset() {
	buf.b.Reset()
}

// SetBytes replaces the buffer's contents with p without copying. It exists
// for callers that grow their own destination slice via append (as
// hpack.Encoder.Encode does) and want to hand the result back to a pooled
// Buffer for the next Bytes/Append/Reset cycle, rather than copying through
// Append a second time.
func (buf *Buffer) SetBytes(p []byte) {
	buf.b.B = p
}

// Pool hands out Buffers backed by a shared bytebufferpool, so repeated
// encode/decode cycles on a long-lived connection reuse allocations
// instead of growing a fresh slice per header block.
type Pool struct {
	pool bytebufferpool.Pool
	free sync.Pool
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	p := &Pool{}
	p.free.New = func() any { return &Buffer{} }
	return p
}

// Get returns a Buffer ready for use, empty of any prior content.
func (p *Pool) Get() *Buffer {
	buf := p.free.Get().(*Buffer)
	buf.b = p.pool.Get()
	return buf
}

// Put returns buf to the pool. The caller must not use buf afterward.
func (p *Pool) Put(buf *Buffer) {
	p.pool.Put(buf.b)
	buf.b = nil
	p.free.Put(buf)
}
