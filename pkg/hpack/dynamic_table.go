package hpack

// HPACK dynamic table, RFC 7541 §2.3.2 and §4.
//
// The dynamic table is a FIFO of recently encoded/decoded header fields,
// shared (in the sense of "kept in lock-step", never literally shared
// memory) between an encoder and its matched decoder. Entries are added at
// the head and evicted from the tail whenever the table's abstract byte
// size would otherwise exceed its configured capacity. Indices for dynamic
// entries start at StaticTableSize+1 (62) and count up from the newest
// entry.
//
// dynamicEntry mirrors nghttp2_hd_entry (lib/nghttp2_hd.h): in the C
// implementation the struct carries a manual refcount because entries are
// heap-allocated and explicitly freed. Go's garbage collector frees entries
// once nothing references them, but the ring buffer still needs to tell the
// difference between "only the table holds this" and "the table evicted
// this, but the decoder is still mid-emission of a header built from it" -
// that distinction is what the refcount tracks here, not memory safety.
type dynamicEntry struct {
	name, value string
	token       Token
	refs        int32
}

func newDynamicEntry(name, value string, token Token) *dynamicEntry {
	return &dynamicEntry{name: name, value: value, token: token, refs: 1}
}

func (e *dynamicEntry) hold() *dynamicEntry {
	if e != nil {
		e.refs++
	}
	return e
}

// release drops a reference. It never frees anything explicitly - once refs
// reaches zero and the entry is unreachable from the ring, the garbage
// collector reclaims it - but it is the hook that would free explicitly in
// a language without a collector, so it stays symmetric with hold.
func (e *dynamicEntry) release() {
	if e != nil {
		e.refs--
	}
}

func (e *dynamicEntry) size() uint32 {
	return entryOverhead(e.name, e.value)
}

// entryOverhead is RFC 7541 §4.1's entry-size accounting: name length plus
// value length plus 32 bytes of assumed per-entry overhead.
func entryOverhead(name, value string) uint32 {
	return uint32(len(name) + len(value) + 32)
}

// dynamicTable is a ring buffer over *dynamicEntry. It grows (doubling) on
// demand and never shrinks; shrinking the backing array would require
// relocating live entries that an in-flight decode might still be holding a
// pointer into, which ring-buffer reslicing cannot do safely.
type dynamicTable struct {
	entries []*dynamicEntry
	head    int
	count   int
	size    uint32 // current abstract byte size (bufsize)
	maxSize uint32 // capacity bound (bufsize_max)
}

func newDynamicTable(maxSize uint32) *dynamicTable {
	capacity := int(maxSize/64) + 1
	if capacity < 16 {
		capacity = 16
	}
	return &dynamicTable{
		entries: make([]*dynamicEntry, capacity),
		maxSize: maxSize,
	}
}

func (dt *dynamicTable) Len() int         { return dt.count }
func (dt *dynamicTable) Size() uint32     { return dt.size }
func (dt *dynamicTable) MaxSize() uint32  { return dt.maxSize }

// add inserts (name, value) at the head of the table, evicting from the
// tail until the new entry fits within maxSize. If the new entry alone is
// larger than maxSize, the table is entirely emptied and the entry is not
// added at all (RFC 7541 §4.4) - the caller still emits it as a literal.
func (dt *dynamicTable) add(name, value string, token Token) {
	newSize := entryOverhead(name, value)

	for dt.size+newSize > dt.maxSize && dt.count > 0 {
		dt.evictOldest()
	}
	if newSize > dt.maxSize {
		return
	}

	if dt.count == len(dt.entries) {
		dt.grow()
	}

	dt.head = (dt.head - 1 + len(dt.entries)) % len(dt.entries)
	dt.entries[dt.head] = newDynamicEntry(name, value, token)
	dt.count++
	dt.size += newSize
}

// get returns the dynamic entry at 1-based index (1 = newest). The returned
// pointer is owned by the table; callers that need it to outlive the next
// mutation must call hold() on it.
func (dt *dynamicTable) get(index int) (*dynamicEntry, bool) {
	if index < 1 || index > dt.count {
		return nil, false
	}
	pos := (dt.head + index - 1) % len(dt.entries)
	return dt.entries[pos], true
}

// find searches for (name, value); semantics match findStatic.
func (dt *dynamicTable) find(name, value string) (index int, exact bool) {
	for i := 0; i < dt.count; i++ {
		pos := (dt.head + i) % len(dt.entries)
		e := dt.entries[pos]
		if e.name != name {
			continue
		}
		if e.value == value {
			return i + 1, true
		}
		if index == 0 {
			index = i + 1
		}
	}
	return index, false
}

func (dt *dynamicTable) evictOldest() {
	if dt.count == 0 {
		return
	}
	tail := (dt.head + dt.count - 1) % len(dt.entries)
	e := dt.entries[tail]
	dt.entries[tail] = nil
	dt.count--
	dt.size -= e.size()
	e.release()
}

// setMaxSize changes the capacity bound, evicting from the tail as needed.
// Used both for the encoder's own ceiling and for dynamic-table-size-update
// representations on the decode side.
func (dt *dynamicTable) setMaxSize(maxSize uint32) {
	dt.maxSize = maxSize
	for dt.size > dt.maxSize && dt.count > 0 {
		dt.evictOldest()
	}
}

func (dt *dynamicTable) grow() {
	newEntries := make([]*dynamicEntry, len(dt.entries)*2)
	for i := 0; i < dt.count; i++ {
		pos := (dt.head + i) % len(dt.entries)
		newEntries[i] = dt.entries[pos]
	}
	dt.entries = newEntries
	dt.head = 0
}

// reset empties the table, releasing every live entry's table-held
// reference. add does not call it: an entry that exceeds capacity outright
// empties the table through add's own eviction loop.
func (dt *dynamicTable) reset() {
	for i := 0; i < dt.count; i++ {
		pos := (dt.head + i) % len(dt.entries)
		if dt.entries[pos] != nil {
			dt.entries[pos].release()
			dt.entries[pos] = nil
		}
	}
	dt.head = 0
	dt.count = 0
	dt.size = 0
}

// headerTable combines the static and dynamic tables under one absolute
// index space: 1..StaticTableSize is static, StaticTableSize+1.. is dynamic
// (newest first).
type headerTable struct {
	dynamic *dynamicTable
}

func newHeaderTable(maxDynamicSize uint32) *headerTable {
	return &headerTable{dynamic: newDynamicTable(maxDynamicSize)}
}

// resolve maps an absolute wire index to a (name, value, token) triple.
// Dynamic hits return a held *dynamicEntry the caller must release once
// done aliasing it; static hits return nil (nothing to release).
func (ht *headerTable) resolve(index int) (name, value string, token Token, dyn *dynamicEntry, ok bool) {
	if index <= 0 {
		return "", "", TokenNone, nil, false
	}
	if index <= StaticTableSize {
		hf, _ := staticEntry(index)
		return hf.Name, hf.Value, lookupToken(hf.Name), nil, true
	}
	e, found := ht.dynamic.get(index - StaticTableSize)
	if !found {
		return "", "", TokenNone, nil, false
	}
	return e.name, e.value, e.token, e.hold(), true
}

func (ht *headerTable) add(name, value string, token Token) {
	ht.dynamic.add(name, value, token)
}

// find searches static then dynamic, preferring exact matches and, among
// exact or among name-only matches, the lowest absolute index (static wins
// ties against dynamic since it is searched first and always indexed lower).
func (ht *headerTable) find(name, value string) (index int, exact bool) {
	staticIdx, staticExact := findStatic(name, value)
	if staticExact {
		return staticIdx, true
	}

	dynIdx, dynExact := ht.dynamic.find(name, value)
	if dynExact {
		return StaticTableSize + dynIdx, true
	}
	if staticIdx > 0 {
		return staticIdx, false
	}
	if dynIdx > 0 {
		return StaticTableSize + dynIdx, false
	}
	return 0, false
}

func (ht *headerTable) setMaxDynamicSize(maxSize uint32) {
	ht.dynamic.setMaxSize(maxSize)
}

func (ht *headerTable) dynamicSize() uint32 { return ht.dynamic.size }
func (ht *headerTable) dynamicLen() int     { return ht.dynamic.count }
