// Package hash computes 256-bit structural hashes. Hashes identify types,
// symbols, and NIR function bodies cheaply; they are built on murmur3 rather
// than a cryptographic digest because they only need collision resistance
// against accidental collisions, not adversaries.
package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Size is the hash length in bytes.
const Size = 32

// Hash is a 256-bit hash value. The zero value acts as the identity for Add.
type Hash [Size]byte

// String returns a short human-readable prefix of the hash, for logging.
func (h Hash) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x", h[0], h[1], h[2], h[3])
}

// Uint64 returns the first eight bytes of the hash as an integer. It is used
// to seed hash-table placement; it does not identify the full hash.
func (h Hash) Uint64() uint64 {
	return binary.LittleEndian.Uint64(h[:8])
}

// Merge combines two hashes in an order-dependent way. a.Merge(b) and
// b.Merge(a) differ, so Merge can encode sequences.
func (h Hash) Merge(other Hash) Hash {
	var buf [2 * Size]byte
	copy(buf[:Size], h[:])
	copy(buf[Size:], other[:])
	return Bytes(buf[:])
}

// Add combines two hashes commutatively: a.Add(b) == b.Add(a), and the zero
// hash is the identity. It is used to hash unordered collections.
func (h Hash) Add(other Hash) Hash {
	var r Hash
	for i := 0; i < Size; i += 8 {
		a := binary.LittleEndian.Uint64(h[i : i+8])
		b := binary.LittleEndian.Uint64(other[i : i+8])
		binary.LittleEndian.PutUint64(r[i:i+8], a+b)
	}
	return r
}

// Bytes hashes a byte slice. Bytes(nil) differs from the zero Hash.
func Bytes(data []byte) Hash {
	var h Hash
	a, b := murmur3.Sum128WithSeed(data, 0x9e3779b9)
	c, d := murmur3.Sum128WithSeed(data, 0x85ebca6b)
	binary.LittleEndian.PutUint64(h[0:8], a)
	binary.LittleEndian.PutUint64(h[8:16], b)
	binary.LittleEndian.PutUint64(h[16:24], c)
	binary.LittleEndian.PutUint64(h[24:32], d)
	return h
}

// String hashes the bytes of a string.
func String(s string) Hash {
	return Bytes([]byte(s))
}

// Int hashes an integer.
func Int(v int64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return Bytes(buf[:])
}

// Bool hashes a boolean.
func Bool(v bool) Hash {
	if v {
		return Bytes([]byte{1})
	}
	return Bytes([]byte{0})
}
