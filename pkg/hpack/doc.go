// Package hpack implements HPACK, the header compression scheme for HTTP/2
// defined by RFC 7541.
//
// The package is split into the same five concerns the RFC itself separates:
// a variable-length integer codec (integer.go), a static Huffman codec
// (huffman.go, huffman_tables.go), a combined static/dynamic header table
// (static_table.go, dynamic_table.go), an Encoder that classifies and
// serializes header fields (encoder.go), and a Decoder that is a resumable,
// byte-at-a-time state machine (decoder.go).
//
// Encoding is synchronous: Encoder.Encode is called once per header field and
// appends that field's wire representation to the caller's buffer. Decoding
// is streaming: Decoder.Decode may be called repeatedly with arbitrarily
// sized fragments of a header block and returns as soon as either a complete
// header field has been parsed or the input is exhausted, ready to resume on
// the next call with whatever bytes follow. Both sides share no state with
// each other directly; they stay synchronized only because each applies the
// same deterministic rules to the same byte stream, exactly as two ends of
// an HTTP/2 connection do.
//
// Everything here operates on a single header block. Splitting a block
// across HEADERS/CONTINUATION frames, or a single HTTP/2 connection's
// concerns (streams, flow control, framing), is the caller's job.
package hpack
