package zend

import (
	"sync"
	"unicode/utf8"
)

// utf8 validity cache states. The flag is monotonic: once a buffer has been
// seen valid it stays valid, because contents are immutable after creation.
const (
	utf8Unchecked uint8 = iota
	utf8Valid
	utf8Invalid
)

// ZString is the engine's length-prefixed, reference-counted byte buffer.
// Contents are immutable after creation. Interned strings are deduplicated in
// a global table and are immortal: refcount operations on them are no-ops.
type ZString struct {
	val      string
	hash     uint64
	refcount uint32
	interned bool
	utf8     uint8
}

// NewZString creates a regular (non-interned) string with refcount 1.
func NewZString(s string) *ZString {
	return &ZString{val: s, hash: hashBytes(s), refcount: 1}
}

// The engine's interning table is not safe against concurrent insertion, so
// creation of interned strings is the one place the bridge takes a dedicated
// lock.
var (
	internMu    sync.Mutex
	internTable = make(map[string]*ZString)
)

// Intern returns the canonical interned string for s, creating it on first
// use. Interned strings are immortal and shared.
func Intern(s string) *ZString {
	internMu.Lock()
	defer internMu.Unlock()
	if zs, ok := internTable[s]; ok {
		return zs
	}
	zs := &ZString{val: s, hash: hashBytes(s), interned: true}
	internTable[s] = zs
	return zs
}

// Len returns the byte length of the buffer.
func (s *ZString) Len() int { return len(s.val) }

// IsEmpty reports whether the buffer has zero length.
func (s *ZString) IsEmpty() bool { return len(s.val) == 0 }

// IsInterned reports whether this is an interned (immortal, deduplicated)
// string.
func (s *ZString) IsInterned() bool { return s.interned }

// String returns the raw contents. Engine strings are byte buffers, so the
// result is not guaranteed to be valid UTF-8; use Utf8 for validated access.
func (s *ZString) String() string { return s.val }

// Bytes returns a copy of the contents.
func (s *ZString) Bytes() []byte { return []byte(s.val) }

// Utf8 returns the contents if they are valid UTF-8, validating on first call
// and caching the verdict.
func (s *ZString) Utf8() (string, error) {
	switch s.utf8 {
	case utf8Valid:
		return s.val, nil
	case utf8Invalid:
		return "", ErrInvalidUtf8
	}
	if utf8.ValidString(s.val) {
		s.utf8 = utf8Valid
		return s.val, nil
	}
	s.utf8 = utf8Invalid
	return "", ErrInvalidUtf8
}

// Hash returns the cached FNV-1a hash of the contents.
func (s *ZString) Hash() uint64 { return s.hash }

// AddRef increments the refcount. No-op for interned strings.
func (s *ZString) AddRef() {
	if !s.interned {
		s.refcount++
	}
}

// Release decrements the refcount. No-op for interned strings. The backing
// storage is reclaimed by the collector once the count reaches zero and the
// last handle is gone.
func (s *ZString) Release() {
	if !s.interned && s.refcount > 0 {
		s.refcount--
	}
}

// Refcount returns the current refcount. Interned strings report 0.
func (s *ZString) Refcount() uint32 { return s.refcount }

// hashBytes is 64-bit FNV-1a.
func hashBytes(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
