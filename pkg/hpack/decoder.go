package hpack

// Decoder (the "inflater" side of HPACK), RFC 7541 §4 and §6.
//
// The decoder is a byte-at-a-time state machine: every state reads some
// bounded piece of the wire format and advances, without ever requiring
// more than one input byte to make progress. This is what lets Decode
// accept input in arbitrarily small slices - a single TCP read, a single
// byte, it makes no difference to correctness, only to how many calls it
// takes. State names and transitions follow nghttp2's inflater directly.

type inflateState int

const (
	stateOpcode inflateState = iota
	stateReadTableSize
	stateReadIndex
	stateNewNameCheckLen
	stateNewNameReadLen
	stateNewNameReadHuff
	stateNewNameRead
	stateCheckValueLen
	stateReadValueLen
	stateReadValueHuff
	stateReadValue
)

// representation distinguishes "indexed header field" (name and value both
// resolved from the table) from the three literal forms, which share
// almost all decode plumbing but diverge on whether a value follows and
// whether the result gets inserted into the dynamic table.
type representation int

const (
	repIndexed representation = iota
	repLiteral
)

// Decoder parses an HPACK-encoded header block incrementally. Like Encoder,
// a Decoder is not safe for concurrent use and must stay matched to
// exactly one peer Encoder's dynamic table.
type Decoder struct {
	cfg   DecoderConfig
	table *headerTable
	bad   error

	state  inflateState
	intDec intDecoder

	rep          representation
	mode         indexingMode
	huffmanName  bool
	huffmanValue bool
	huffDec      huffmanDecoder

	nameBuf  []byte
	valueBuf []byte
	wantLen  int

	pendingName string

	sawRepresentation      bool // true once any non-size-update representation has started
	consecutiveSizeUpdates int
}

// NewDecoder creates a Decoder with the given configuration.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{
		cfg:   cfg,
		table: newHeaderTable(cfg.MaxDynamicTableSize),
	}, nil
}

// Bad reports the error that poisoned this decoder, or nil.
func (d *Decoder) Bad() error { return d.bad }

// SetMaxDynamicTableSize changes the largest capacity this decoder will
// accept from a peer's dynamic-table-size-update representation.
func (d *Decoder) SetMaxDynamicTableSize(maxSize uint32) {
	d.cfg.MaxDynamicTableSize = maxSize
}

// EndHeaders asserts that the decoder is at a clean block boundary (the
// OPCODE state, with no partially-consumed representation in flight) and
// resets the size-update placement tracker for the next block.
func (d *Decoder) EndHeaders() error {
	if d.bad != nil {
		return ErrPoisoned
	}
	if d.state != stateOpcode {
		return d.fail(errBlockIncomplete)
	}
	d.sawRepresentation = false
	d.consecutiveSizeUpdates = 0
	return nil
}

func (d *Decoder) fail(err error) error {
	ce := compressionError(err)
	d.bad = ce
	return ce
}

// Decode consumes a prefix of in, advancing the state machine. It returns
// the number of bytes consumed, the header field emitted (valid only when
// emitted is true), and any error. Decode never blocks and never requests
// more input than in currently holds: when in is exhausted mid-
// representation it returns having consumed everything, ready to resume
// on the next call with the rest of the bytes.
func (d *Decoder) Decode(in []byte) (consumed int, hf HeaderField, emitted bool, err error) {
	if d.bad != nil {
		return 0, HeaderField{}, false, ErrPoisoned
	}

	for consumed < len(in) {
		b := in[consumed]
		consumed++

		switch d.state {
		case stateOpcode:
			hf, emitted, err = d.stepOpcode(b)

		case stateReadTableSize:
			_, err = d.stepContinuation(b, d.applyTableSizeUpdate)

		case stateReadIndex:
			_, err = d.stepContinuation(b, func(v uint32) error {
				var e error
				hf, emitted, e = d.finishIndex(int(v))
				return e
			})

		case stateNewNameCheckLen:
			d.huffmanName = b&0x80 != 0
			if d.intDec.begin(7, b) {
				err = d.finishNameLen(d.intDec.result())
			} else {
				d.state = stateNewNameReadLen
			}

		case stateNewNameReadLen:
			_, err = d.stepContinuation(b, d.finishNameLen)

		case stateNewNameReadHuff:
			d.nameBuf, err = d.huffDec.decodeByte(d.nameBuf, b)
			if err == nil {
				err = d.stepHuffmanLen(len(d.nameBuf))
				if err == nil && d.wantLen == 0 {
					if ferr := d.huffDec.finish(); ferr != nil {
						err = ferr
					} else {
						d.pendingName = string(d.nameBuf)
						d.state = stateCheckValueLen
					}
				}
			}

		case stateNewNameRead:
			d.nameBuf = append(d.nameBuf, b)
			d.wantLen--
			if d.wantLen == 0 {
				d.pendingName = string(d.nameBuf)
				d.state = stateCheckValueLen
			}

		case stateCheckValueLen:
			d.huffmanValue = b&0x80 != 0
			if d.intDec.begin(7, b) {
				hf, emitted, err = d.finishValueLen(d.intDec.result())
			} else {
				d.state = stateReadValueLen
			}

		case stateReadValueLen:
			_, err = d.stepContinuation(b, func(v uint32) error {
				var e error
				hf, emitted, e = d.finishValueLen(v)
				return e
			})

		case stateReadValueHuff:
			d.valueBuf, err = d.huffDec.decodeByte(d.valueBuf, b)
			if err == nil {
				err = d.stepHuffmanLen(len(d.valueBuf))
				if err == nil && d.wantLen == 0 {
					if ferr := d.huffDec.finish(); ferr != nil {
						err = ferr
					} else {
						hf = d.completeValue(string(d.valueBuf))
						emitted = true
					}
				}
			}

		case stateReadValue:
			d.valueBuf = append(d.valueBuf, b)
			d.wantLen--
			if d.wantLen == 0 {
				hf = d.completeValue(string(d.valueBuf))
				emitted = true
			}
		}

		if err != nil {
			return consumed, HeaderField{}, false, d.fail(err)
		}
		if emitted {
			return consumed, hf, true, nil
		}
	}

	return consumed, HeaderField{}, false, nil
}

// stepContinuation feeds b to the shared integer decoder and, once the
// integer is complete, calls apply with its value. It exists to collapse
// the four states that are nothing but "read more continuation bytes" into
// one helper.
func (d *Decoder) stepContinuation(b byte, apply func(uint32) error) (done bool, err error) {
	complete, err := d.intDec.continueByte(b)
	if err != nil {
		return false, err
	}
	if !complete {
		return false, nil
	}
	return true, apply(d.intDec.result())
}

// stepHuffmanLen enforces the string-length ceiling against the Huffman
// decoder's (possibly multi-byte-per-input-byte) output and decrements the
// remaining encoded-byte counter.
func (d *Decoder) stepHuffmanLen(decodedLen int) error {
	if decodedLen > d.cfg.MaxStringLength {
		return errStringTooLong
	}
	d.wantLen--
	return nil
}

// stepOpcode classifies the first byte of a representation, RFC 7541 §6.
func (d *Decoder) stepOpcode(b byte) (hf HeaderField, emitted bool, err error) {
	switch {
	case b&0x80 != 0: // 1xxxxxxx: indexed header field
		d.markRepresentation()
		d.rep = repIndexed
		if d.intDec.begin(7, b) {
			return d.finishIndex(int(d.intDec.result()))
		}
		d.state = stateReadIndex
		return HeaderField{}, false, nil

	case b&0xc0 == 0x40: // 01xxxxxx: literal with incremental indexing
		d.markRepresentation()
		d.rep = repLiteral
		d.mode = withIndexing
		return d.beginLiteral(b, 6)

	case b&0xe0 == 0x20: // 001xxxxx: dynamic table size update
		if d.sawRepresentation {
			return HeaderField{}, false, errSizeUpdateMisplaced
		}
		d.consecutiveSizeUpdates++
		if d.consecutiveSizeUpdates > 2 {
			return HeaderField{}, false, errTooManySizeUpdates
		}
		if d.intDec.begin(5, b) {
			return HeaderField{}, false, d.applyTableSizeUpdate(d.intDec.result())
		}
		d.state = stateReadTableSize
		return HeaderField{}, false, nil

	case b&0xf0 == 0x10: // 0001xxxx: literal, never indexed
		d.markRepresentation()
		d.rep = repLiteral
		d.mode = neverIndexed
		return d.beginLiteral(b, 4)

	default: // 0000xxxx: literal without indexing
		d.markRepresentation()
		d.rep = repLiteral
		d.mode = withoutIndexing
		return d.beginLiteral(b, 4)
	}
}

func (d *Decoder) markRepresentation() {
	d.sawRepresentation = true
	d.consecutiveSizeUpdates = 0
}

func (d *Decoder) beginLiteral(b byte, prefixBits uint8) (hf HeaderField, emitted bool, err error) {
	if d.intDec.begin(prefixBits, b) {
		return d.finishIndex(int(d.intDec.result()))
	}
	d.state = stateReadIndex
	return HeaderField{}, false, nil
}

// finishIndex handles the completed index field. For an indexed header
// field it resolves and emits immediately. For a literal it resolves only
// the name (index 0 means a new name follows on the wire) and advances to
// read the value.
func (d *Decoder) finishIndex(index int) (hf HeaderField, emitted bool, err error) {
	if d.rep == repIndexed {
		if index == 0 {
			return HeaderField{}, false, errZeroIndex
		}
		name, value, _, dyn, ok := d.table.resolve(index)
		if !ok {
			return HeaderField{}, false, errIndexOutOfRange
		}
		dyn.release()
		d.state = stateOpcode
		return HeaderField{Name: name, Value: value}, true, nil
	}

	if index == 0 {
		d.state = stateNewNameCheckLen
		return HeaderField{}, false, nil
	}

	name, _, _, dyn, ok := d.table.resolve(index)
	if !ok {
		return HeaderField{}, false, errIndexOutOfRange
	}
	dyn.release()
	d.pendingName = name
	d.state = stateCheckValueLen
	return HeaderField{}, false, nil
}

func (d *Decoder) finishNameLen(length uint32) error {
	if int(length) > d.cfg.MaxStringLength {
		return errStringTooLong
	}
	d.wantLen = int(length)
	d.nameBuf = d.cfg.Allocator.Realloc(d.nameBuf, 0)

	if d.huffmanName {
		d.huffDec = newHuffmanDecoder()
	}
	if d.wantLen == 0 {
		d.pendingName = ""
		d.state = stateCheckValueLen
		return nil
	}
	if d.huffmanName {
		d.state = stateNewNameReadHuff
	} else {
		d.state = stateNewNameRead
	}
	return nil
}

func (d *Decoder) finishValueLen(length uint32) (hf HeaderField, emitted bool, err error) {
	if int(length) > d.cfg.MaxStringLength {
		return HeaderField{}, false, errStringTooLong
	}
	d.wantLen = int(length)
	d.valueBuf = d.cfg.Allocator.Realloc(d.valueBuf, 0)

	if d.huffmanValue {
		d.huffDec = newHuffmanDecoder()
	}
	if d.wantLen == 0 {
		return d.completeValue(""), true, nil
	}
	if d.huffmanValue {
		d.state = stateReadValueHuff
	} else {
		d.state = stateReadValue
	}
	return HeaderField{}, false, nil
}

// applyTableSizeUpdate handles a dynamic-table-size-update representation,
// RFC 7541 §6.3: the new capacity must not exceed the ceiling this decoder
// was configured to accept (settings_hd_table_bufsize_max).
func (d *Decoder) applyTableSizeUpdate(newSize uint32) error {
	if newSize > d.cfg.MaxDynamicTableSize {
		return errTableSizeTooLarge
	}
	d.table.setMaxDynamicSize(newSize)
	d.state = stateOpcode
	return nil
}

// completeValue finishes a literal representation once its value string is
// fully known: build the HeaderField to return, then insert it into the
// dynamic table when the representation asks for indexing. The returned
// strings are immutable, so any eviction the insertion causes cannot
// affect them.
func (d *Decoder) completeValue(value string) HeaderField {
	hf := HeaderField{Name: d.pendingName, Value: value}

	if d.mode == withIndexing {
		d.table.add(hf.Name, hf.Value, lookupToken(hf.Name))
	}

	d.state = stateOpcode
	return hf
}
