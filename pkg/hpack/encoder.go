package hpack

// Encoder (the "deflater" side of HPACK), RFC 7541 §4 and §6.

// indexingMode selects how a header field representation is emitted and
// whether it is inserted into the dynamic table afterward.
type indexingMode int

const (
	withIndexing indexingMode = iota
	withoutIndexing
	neverIndexed
)

// Encoder serializes header fields into HPACK-encoded bytes. An Encoder is
// not safe for concurrent use: it carries a single shared dynamic table
// that must stay in lock-step with a single decoder peer, and multiple
// goroutines racing to append to it would require either throwing away
// that table's index stability or acquiring a lock to compensate -
// neither is something the HPACK state machine itself needs.
type Encoder struct {
	cfg   EncoderConfig
	table *headerTable

	minTableSize       uint32
	pendingTableUpdate bool
	bad                error
}

// NewEncoder creates an Encoder with the given configuration. The zero
// EncoderConfig is invalid; callers that don't need to override anything
// should pass DefaultEncoderConfig().
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		cfg:          cfg,
		table:        newHeaderTable(cfg.MaxDynamicTableSize),
		minTableSize: cfg.MaxDynamicTableSize,
	}, nil
}

// SetMaxDynamicTableSize changes the encoder's own ceiling on dynamic table
// memory and schedules a size-update signal to be emitted before the next
// header field, per RFC 7541 §6.3. Calling this below the table's current
// capacity tracks the new minimum so that, if capacity is later raised
// again before the next Encode call, both the drop and the rise are
// signalled (the two-size-update sequence RFC 7541 §4.2 allows).
func (e *Encoder) SetMaxDynamicTableSize(maxSize uint32) {
	e.cfg.MaxDynamicTableSize = maxSize
	if maxSize < e.minTableSize || !e.pendingTableUpdate {
		e.minTableSize = maxSize
	}
	e.pendingTableUpdate = true
}

// Bad reports the error that poisoned this encoder, or nil if it is still
// usable. Once an Encoder has been poisoned, every later Encode call
// fails with ErrPoisoned: HPACK's compression state is shared with the
// decoder peer and a local fault leaves it in an unknown, unrecoverable
// position.
func (e *Encoder) Bad() error { return e.bad }

// Encode appends hf's HPACK representation to dst and returns the extended
// slice. sensitiveValue forces a never-indexed representation regardless
// of the header's name, for values (e.g. a per-request secret) that must
// never be cached in the dynamic table.
func (e *Encoder) Encode(dst []byte, hf HeaderField, sensitiveValue bool) ([]byte, error) {
	if e.bad != nil {
		return dst, ErrPoisoned
	}

	dst = e.emitPendingTableUpdate(dst)

	mode := e.classify(hf, sensitiveValue)

	idx, exact := e.table.find(hf.Name, hf.Value)
	if exact && mode == withIndexing {
		dst = appendInt(dst, uint64(idx), 7, 0x80)
		return dst, nil
	}

	dst = e.emitLiteral(dst, hf, idx, mode)

	if mode == withIndexing {
		e.table.add(hf.Name, hf.Value, lookupToken(hf.Name))
	}

	return dst, nil
}

// emitPendingTableUpdate writes any size-update representations queued by
// SetMaxDynamicTableSize. RFC 7541 §4.2: if the capacity was lowered and
// then raised again before being signalled, both the minimum observed and
// the final value are sent, in that order, so the peer's table shrinks and
// regrows exactly as this encoder's did.
func (e *Encoder) emitPendingTableUpdate(dst []byte) []byte {
	if !e.pendingTableUpdate {
		return dst
	}

	if e.minTableSize < e.cfg.MaxDynamicTableSize {
		dst = appendInt(dst, uint64(e.minTableSize), 5, 0x20)
	}
	dst = appendInt(dst, uint64(e.cfg.MaxDynamicTableSize), 5, 0x20)

	e.table.setMaxDynamicSize(e.cfg.MaxDynamicTableSize)
	e.pendingTableUpdate = false
	e.minTableSize = e.cfg.MaxDynamicTableSize
	return dst
}

// classify decides a header field's indexing mode, RFC 7541 §4.4 / §7.1.3 /
// §8.1 (HTTP/2 §8.1.2.2 for the hop-by-hop set).
func (e *Encoder) classify(hf HeaderField, sensitiveValue bool) indexingMode {
	if sensitiveValue {
		return neverIndexed
	}

	tok := lookupToken(hf.Name)
	if isHopByHop(tok) {
		return neverIndexed
	}
	if hf.Name == "authorization" {
		return neverIndexed
	}
	if hf.Name == "cookie" && len(hf.Value) < 20 {
		return neverIndexed
	}
	return withIndexing
}

// emitLiteral writes a literal representation: an indexed-name or new-name
// form depending on idx, using mode's prefix pattern.
func (e *Encoder) emitLiteral(dst []byte, hf HeaderField, idx int, mode indexingMode) []byte {
	var prefixBits uint8
	var firstByteBits byte

	switch mode {
	case withIndexing:
		prefixBits, firstByteBits = 6, 0x40
	case withoutIndexing:
		prefixBits, firstByteBits = 4, 0x00
	case neverIndexed:
		prefixBits, firstByteBits = 4, 0x10
	}

	if idx > 0 {
		dst = appendInt(dst, uint64(idx), prefixBits, firstByteBits)
	} else {
		dst = appendInt(dst, 0, prefixBits, firstByteBits)
		dst = e.appendString(dst, hf.Name)
	}

	dst = e.appendString(dst, hf.Value)
	return dst
}

// appendString writes a literal string as a 7-bit-prefix length (high bit:
// Huffman flag) followed by its octets, choosing Huffman coding only when
// it is strictly smaller than the raw encoding (RFC 7541 §5.2 permits
// either; this package follows the teacher's minimum-size heuristic for
// the common case without claiming it is globally optimal).
func (e *Encoder) appendString(dst []byte, s string) []byte {
	if e.cfg.HuffmanStrings {
		if n := huffmanEncodedLen(s); n < len(s) {
			dst = appendInt(dst, uint64(n), 7, 0x80)
			return appendHuffman(dst, s)
		}
	}
	dst = appendInt(dst, uint64(len(s)), 7, 0x00)
	return append(dst, s...)
}
