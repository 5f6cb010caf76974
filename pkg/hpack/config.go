package hpack

import "github.com/yourusername/hpack/pkg/hpack/hpackutil"

// DefaultMaxDynamicTableSize is RFC 7541 §4.2's default dynamic table
// capacity, used by both sides of a connection until a SETTINGS frame or a
// dynamic-table-size-update representation says otherwise.
const DefaultMaxDynamicTableSize = 4096

// defaultMaxStringLength bounds how large a single decoded name or value
// may be, guarding against a peer claiming an enormous literal length and
// forcing an equally enormous allocation before any data has actually
// arrived. RFC 7541 does not mandate a limit; nghttp2 chose 64KiB
// (NGHTTP2_HD_MAX_NV) for the same reason, and this package follows it.
const defaultMaxStringLength = 64 * 1024

// EncoderConfig controls an Encoder's indexing behavior. The zero value is
// not valid; use DefaultEncoderConfig.
type EncoderConfig struct {
	// MaxDynamicTableSize is the capacity of the encoder's own dynamic
	// table. Encoder.SetMaxDynamicTableSize replaces it with whatever value
	// it is given; the encoder keeps no separate upper bound, so a later
	// call can raise the capacity past this initial value.
	MaxDynamicTableSize uint32

	// HuffmanStrings enables Huffman coding for literal strings. When true
	// (the default) a string is Huffman-coded only when doing so is
	// strictly smaller than the raw encoding.
	HuffmanStrings bool
}

// DefaultEncoderConfig returns the configuration new Encoders use unless
// told otherwise.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		MaxDynamicTableSize: DefaultMaxDynamicTableSize,
		HuffmanStrings:      true,
	}
}

// Validate clamps invalid fields: out-of-range numeric fields are reset to
// their defaults rather than treated as fatal, so it always returns nil.
func (c *EncoderConfig) Validate() error {
	if c.MaxDynamicTableSize == 0 {
		c.MaxDynamicTableSize = DefaultMaxDynamicTableSize
	}
	return nil
}

// DecoderConfig controls a Decoder's acceptance limits.
type DecoderConfig struct {
	// MaxDynamicTableSize is the largest dynamic table capacity the
	// decoder will honor from a peer's size-update representation
	// (settings_hd_table_bufsize_max in the original nghttp2 naming).
	// A size update above this is a protocol violation.
	MaxDynamicTableSize uint32

	// MaxStringLength bounds a single decoded name or value's length.
	MaxStringLength int

	// Allocator supplies the scratch buffers used while accumulating a
	// literal name or value across repeated Decode calls. Supplying one
	// backed by an arena or a pool lets a caller amortize the allocations a
	// long-lived connection would otherwise repeat per header block; the
	// zero value falls back to hpackutil.DefaultAllocator.
	Allocator hpackutil.Allocator
}

// DefaultDecoderConfig returns the configuration new Decoders use unless
// told otherwise.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		MaxDynamicTableSize: DefaultMaxDynamicTableSize,
		MaxStringLength:     defaultMaxStringLength,
		Allocator:           hpackutil.DefaultAllocator{},
	}
}

func (c *DecoderConfig) Validate() error {
	if c.MaxDynamicTableSize == 0 {
		c.MaxDynamicTableSize = DefaultMaxDynamicTableSize
	}
	if c.MaxStringLength <= 0 {
		c.MaxStringLength = defaultMaxStringLength
	}
	if c.Allocator == nil {
		c.Allocator = hpackutil.DefaultAllocator{}
	}
	return nil
}
