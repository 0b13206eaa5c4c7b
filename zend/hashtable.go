package zend

import "fmt"

// ArrayKey is a hashtable key: a 64-bit integer or a byte-string. Go strings
// are cheap immutable views, so the string form doubles as the borrowed
// lookup key; no copying variant is needed.
type ArrayKey struct {
	str    string
	idx    int64
	strKey bool
}

// LongKey makes an integer key.
func LongKey(i int64) ArrayKey { return ArrayKey{idx: i} }

// StrKey makes a string key.
func StrKey(s string) ArrayKey { return ArrayKey{str: s, strKey: true} }

// IsString reports whether the key is a string key.
func (k ArrayKey) IsString() bool { return k.strKey }

// Long returns the integer key.
func (k ArrayKey) Long() (int64, bool) {
	if k.strKey {
		return 0, false
	}
	return k.idx, true
}

// Str returns the string key.
func (k ArrayKey) Str() (string, bool) {
	if !k.strKey {
		return "", false
	}
	return k.str, true
}

func (k ArrayKey) String() string {
	if k.strKey {
		return k.str
	}
	return fmt.Sprintf("%d", k.idx)
}

// bucket is one hashtable slot. Removal tombstones the slot (dead=true);
// compaction reclaims tombstones lazily so live cursors stay cheap.
type bucket struct {
	key  ArrayKey
	val  Zval
	dead bool
}

// HashTable is the engine's insertion-ordered associative container. Keys
// are unique; iteration order is insertion order. It is exclusively owned by
// whichever cell's array payload references it unless explicitly shared via
// AddRef.
type HashTable struct {
	buckets  []bucket
	strIdx   map[string]int
	intIdx   map[int64]int
	nextFree int64
	tombs    int
	refcount uint32
}

// NewHashTable allocates an empty table.
func NewHashTable() *HashTable { return NewHashTableSized(0) }

// NewHashTableSized allocates an empty table with room for n entries.
func NewHashTableSized(n int) *HashTable {
	return &HashTable{
		buckets:  make([]bucket, 0, n),
		strIdx:   make(map[string]int, n),
		intIdx:   make(map[int64]int, n),
		refcount: 1,
	}
}

// Len returns the number of live entries.
func (ht *HashTable) Len() int { return len(ht.buckets) - ht.tombs }

// IsEmpty reports whether the table has no live entries.
func (ht *HashTable) IsEmpty() bool { return ht.Len() == 0 }

// Clear releases every contained value and empties the table.
func (ht *HashTable) Clear() {
	for i := range ht.buckets {
		if !ht.buckets[i].dead {
			ht.buckets[i].val.Release()
		}
	}
	ht.buckets = ht.buckets[:0]
	ht.strIdx = make(map[string]int)
	ht.intIdx = make(map[int64]int)
	ht.nextFree = 0
	ht.tombs = 0
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

// Get returns the cell stored under a string key, or nil. The returned
// pointer borrows into the table: it stays valid until the table is mutated.
func (ht *HashTable) Get(key string) *Zval {
	i, ok := ht.strIdx[key]
	if !ok {
		return nil
	}
	return &ht.buckets[i].val
}

// GetIndex returns the cell stored under an integer key, or nil.
func (ht *HashTable) GetIndex(idx int64) *Zval {
	i, ok := ht.intIdx[idx]
	if !ok {
		return nil
	}
	return &ht.buckets[i].val
}

// GetKey returns the cell stored under k, or nil.
func (ht *HashTable) GetKey(k ArrayKey) *Zval {
	if k.strKey {
		return ht.Get(k.str)
	}
	return ht.GetIndex(k.idx)
}

// Has reports whether a string key is present.
func (ht *HashTable) Has(key string) bool { _, ok := ht.strIdx[key]; return ok }

// HasIndex reports whether an integer key is present.
func (ht *HashTable) HasIndex(idx int64) bool { _, ok := ht.intIdx[idx]; return ok }

// ---------------------------------------------------------------------------
// Insertion. Inserting on an existing key overwrites in place, releasing the
// old value and keeping the entry's original position.
// ---------------------------------------------------------------------------

// Insert converts v and stores it under a string key. A conversion failure
// aborts the insert and is returned as-is.
func (ht *HashTable) Insert(key string, v any) error {
	zv := NewZval()
	if err := ToZval(&zv, v); err != nil {
		return err
	}
	ht.InsertZval(key, zv)
	return nil
}

// InsertZval stores a cell under a string key, taking ownership of it.
func (ht *HashTable) InsertZval(key string, zv Zval) {
	if i, ok := ht.strIdx[key]; ok {
		ht.buckets[i].val.Release()
		ht.buckets[i].val = zv
		return
	}
	ht.maybeCompact()
	ht.strIdx[key] = len(ht.buckets)
	ht.buckets = append(ht.buckets, bucket{key: StrKey(key), val: zv})
}

// InsertAt converts v and stores it under an integer key.
func (ht *HashTable) InsertAt(idx int64, v any) error {
	zv := NewZval()
	if err := ToZval(&zv, v); err != nil {
		return err
	}
	ht.InsertAtZval(idx, zv)
	return nil
}

// InsertAtZval stores a cell under an integer key, taking ownership of it.
func (ht *HashTable) InsertAtZval(idx int64, zv Zval) {
	if i, ok := ht.intIdx[idx]; ok {
		ht.buckets[i].val.Release()
		ht.buckets[i].val = zv
	} else {
		ht.maybeCompact()
		ht.intIdx[idx] = len(ht.buckets)
		ht.buckets = append(ht.buckets, bucket{key: LongKey(idx), val: zv})
	}
	if idx >= ht.nextFree {
		ht.nextFree = idx + 1
	}
}

// Push converts v and appends it at the next free integer key.
func (ht *HashTable) Push(v any) error {
	zv := NewZval()
	if err := ToZval(&zv, v); err != nil {
		return err
	}
	ht.PushZval(zv)
	return nil
}

// PushZval appends a cell at the next free integer key, taking ownership.
func (ht *HashTable) PushZval(zv Zval) {
	ht.InsertAtZval(ht.nextFree, zv)
}

// ---------------------------------------------------------------------------
// Removal. A missing key is a no-op, reported as false; it is not an error.
// ---------------------------------------------------------------------------

// Remove deletes the entry under a string key, releasing its value.
func (ht *HashTable) Remove(key string) bool {
	i, ok := ht.strIdx[key]
	if !ok {
		return false
	}
	delete(ht.strIdx, key)
	ht.kill(i)
	return true
}

// RemoveIndex deletes the entry under an integer key, releasing its value.
func (ht *HashTable) RemoveIndex(idx int64) bool {
	i, ok := ht.intIdx[idx]
	if !ok {
		return false
	}
	delete(ht.intIdx, idx)
	ht.kill(i)
	return true
}

// RemoveKey deletes the entry under k.
func (ht *HashTable) RemoveKey(k ArrayKey) bool {
	if k.strKey {
		return ht.Remove(k.str)
	}
	return ht.RemoveIndex(k.idx)
}

func (ht *HashTable) kill(i int) {
	ht.buckets[i].val.Release()
	ht.buckets[i].dead = true
	ht.tombs++
}

// maybeCompact reclaims tombstones once they dominate the bucket array.
// Compaction preserves insertion order. It runs only on the insert path so
// removal never invalidates a cursor.
func (ht *HashTable) maybeCompact() {
	if ht.tombs <= 8 || ht.tombs*2 < len(ht.buckets) {
		return
	}
	live := make([]bucket, 0, ht.Len())
	for i := range ht.buckets {
		if !ht.buckets[i].dead {
			live = append(live, ht.buckets[i])
		}
	}
	ht.buckets = live
	ht.tombs = 0
	for i := range ht.buckets {
		k := ht.buckets[i].key
		if k.strKey {
			ht.strIdx[k.str] = i
		} else {
			ht.intIdx[k.idx] = i
		}
	}
}

// ---------------------------------------------------------------------------
// Key-shape predicates
// ---------------------------------------------------------------------------

// HasNumericalKeys reports whether every live key is an integer key. An
// empty table counts as numerical.
func (ht *HashTable) HasNumericalKeys() bool {
	for i := range ht.buckets {
		if !ht.buckets[i].dead && ht.buckets[i].key.strKey {
			return false
		}
	}
	return true
}

// HasSequentialKeys reports whether the live keys are exactly 0..n-1 in
// iteration order, which is what lets the table bridge to a native slice.
func (ht *HashTable) HasSequentialKeys() bool {
	var want int64
	for i := range ht.buckets {
		if ht.buckets[i].dead {
			continue
		}
		k := ht.buckets[i].key
		if k.strKey || k.idx != want {
			return false
		}
		want++
	}
	return true
}

// ---------------------------------------------------------------------------
// Iteration. Cursors follow the engine's current-position protocol: they
// walk positions, skip reclaimed slots, and stop at the end sentinel instead
// of reading past the bucket array. Iteration order is insertion order and
// is only meaningful while the table is not mutated.
// ---------------------------------------------------------------------------

// Entry is one (key, value) pair surfaced by iteration helpers.
type Entry struct {
	Key ArrayKey
	Val *Zval
}

// Iter is a double-ended cursor over a table.
type Iter struct {
	ht  *HashTable
	pos int
	end int
}

// Iter returns a fresh cursor positioned before the first entry.
func (ht *HashTable) Iter() *Iter {
	return &Iter{ht: ht, pos: 0, end: len(ht.buckets)}
}

// Next yields the next entry from the front, or ok=false at the end.
func (it *Iter) Next() (ArrayKey, *Zval, bool) {
	for it.pos < it.end {
		b := &it.ht.buckets[it.pos]
		it.pos++
		if !b.dead {
			return b.key, &b.val, true
		}
	}
	return ArrayKey{}, nil, false
}

// NextBack yields the next entry from the back, or ok=false once the two
// ends meet.
func (it *Iter) NextBack() (ArrayKey, *Zval, bool) {
	for it.end > it.pos {
		it.end--
		b := &it.ht.buckets[it.end]
		if !b.dead {
			return b.key, &b.val, true
		}
	}
	return ArrayKey{}, nil, false
}

// Remaining returns how many live entries the cursor has not yet yielded.
func (it *Iter) Remaining() int {
	n := 0
	for i := it.pos; i < it.end; i++ {
		if !it.ht.buckets[i].dead {
			n++
		}
	}
	return n
}

// ForEach calls fn for every live entry in insertion order, stopping at the
// first error and returning it.
func (ht *HashTable) ForEach(fn func(k ArrayKey, v *Zval) error) error {
	it := ht.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			return nil
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
}

// Entries returns an ordered snapshot of the live entries. Values still
// borrow into the table.
func (ht *HashTable) Entries() []Entry {
	out := make([]Entry, 0, ht.Len())
	for i := range ht.buckets {
		if !ht.buckets[i].dead {
			out = append(out, Entry{Key: ht.buckets[i].key, Val: &ht.buckets[i].val})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Ownership
// ---------------------------------------------------------------------------

func (ht *HashTable) AddRef() { ht.refcount++ }

// Release decrements the refcount; at zero every contained value is
// released and the backing storage is dropped.
func (ht *HashTable) Release() {
	if ht.refcount == 0 {
		return
	}
	ht.refcount--
	if ht.refcount == 0 {
		ht.Clear()
	}
}

func (ht *HashTable) Refcount() uint32 { return ht.refcount }
