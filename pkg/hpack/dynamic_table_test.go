package hpack

import "testing"

func TestDynamicTableAddAndGet(t *testing.T) {
	dt := newDynamicTable(4096)

	dt.add("custom-key", "custom-value", TokenNone)
	if dt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dt.Len())
	}

	e, ok := dt.get(1)
	if !ok || e.name != "custom-key" || e.value != "custom-value" {
		t.Fatalf("get(1) = %+v, %v", e, ok)
	}

	wantSize := entryOverhead("custom-key", "custom-value")
	if dt.Size() != wantSize {
		t.Errorf("Size() = %d, want %d", dt.Size(), wantSize)
	}
}

func TestDynamicTableEvictsOldest(t *testing.T) {
	// A 200-byte table holds :status 302 (42), :status 307 (42) and
	// location (63), 147 bytes in all. Adding a 106-byte set-cookie entry
	// evicts from the oldest end until it fits, so :status 302 can no
	// longer be the oldest entry.
	dt := newDynamicTable(200)

	dt.add(":status", "302", tokenStatus())
	dt.add(":status", "307", tokenStatus())
	dt.add("location", "https://www.example.com", TokenNone)

	if dt.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (200-byte table should hold all three)", dt.Len())
	}

	dt.add("set-cookie", "a-cookie-value-long-enough-to-force-eviction-of-the-oldest-entry", TokenNone)

	e, ok := dt.get(dt.Len())
	if !ok {
		t.Fatal("expected oldest remaining entry")
	}
	if e.name == ":status" && e.value == "302" {
		t.Error("oldest entry was not evicted")
	}
}

func TestDynamicTableEntryLargerThanCapacityIsNotAdded(t *testing.T) {
	dt := newDynamicTable(64)
	dt.add("small", "value", TokenNone)
	if dt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dt.Len())
	}

	dt.add("name", stringOfLen(100), TokenNone)
	if dt.Len() != 0 {
		t.Fatalf("Len() = %d, want 0: an entry exceeding capacity must empty the table, not be added", dt.Len())
	}
}

func TestDynamicTableSetMaxSizeEvicts(t *testing.T) {
	dt := newDynamicTable(4096)
	dt.add("a", "1", TokenNone)
	dt.add("b", "2", TokenNone)
	dt.add("c", "3", TokenNone)

	dt.setMaxSize(entryOverhead("c", "3") + entryOverhead("b", "2"))
	if dt.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after shrinking capacity", dt.Len())
	}
}

func TestHeaderTableResolveSpansStaticAndDynamic(t *testing.T) {
	ht := newHeaderTable(4096)
	ht.add("x-custom", "hello", TokenNone)

	name, value, _, dyn, ok := ht.resolve(1)
	if !ok || name != ":authority" {
		t.Fatalf("resolve(1) = %q, %q, %v", name, value, ok)
	}
	if dyn != nil {
		t.Error("static resolve should not return a dynamic entry")
	}

	name, value, _, dyn, ok = ht.resolve(StaticTableSize + 1)
	if !ok || name != "x-custom" || value != "hello" {
		t.Fatalf("resolve(dynamic) = %q, %q, %v", name, value, ok)
	}
	if dyn == nil {
		t.Fatal("dynamic resolve should return the held entry")
	}
	dyn.release()

	if _, _, _, _, ok := ht.resolve(0); ok {
		t.Error("resolve(0) should fail: index 0 is illegal")
	}
	if _, _, _, _, ok := ht.resolve(StaticTableSize + ht.dynamicLen() + 1); ok {
		t.Error("resolve(out of range) should fail")
	}
}

func stringOfLen(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func tokenStatus() Token { return lookupToken(":status") }
