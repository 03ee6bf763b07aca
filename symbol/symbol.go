// Package symbol manages symbols. Symbols are deduped strings represented as
// small integers. The compiler interns every identifier, field name, and
// function name it sees, so name comparisons along the hot paths of the type
// checker and the NIR builder are integer compares.
package symbol

import (
	"sync"

	"github.com/grailbio/base/log"

	"github.com/harlanhaskins/ntl/hash"
)

// ID represents an interned symbol.
type ID int32

// Invalid is a sentinel. It is the ID of no symbol.
const Invalid = ID(0)

type idInfo struct {
	name string
	hash hash.Hash
}

// Singleton symbol intern table. Interning is process-global: two compilations
// running on separate goroutines share one table, which is why all accesses
// are guarded by the RWMutex.
type table struct {
	mu   sync.RWMutex
	syms map[string]ID
	ids  []idInfo
}

var symbols = table{
	syms: map[string]ID{"(invalid)": Invalid},
	ids:  []idInfo{{name: "(invalid)", hash: hash.String("(invalid)")}},
}

// Intern finds or creates an ID for the given string.
//
// REQUIRES: v != "".
func Intern(v string) ID {
	if v == "" {
		log.Panicf("symbol: interning empty string")
	}
	symbols.mu.RLock()
	id, ok := symbols.syms[v]
	symbols.mu.RUnlock()
	if ok {
		return id
	}

	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	if id, ok := symbols.syms[v]; ok {
		return id
	}
	id = ID(len(symbols.ids))
	symbols.ids = append(symbols.ids, idInfo{name: v, hash: hash.String(v)})
	symbols.syms[v] = id
	return id
}

// Str returns the string the ID was interned from.
//
// Note: not called String() so that IDs keep printing as integers under %v.
func (id ID) Str() string {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	if int(id) >= len(symbols.ids) {
		log.Panicf("symbol: id %d not found", id)
	}
	return symbols.ids[id].name
}

// Hash returns the hash of the symbol's string form.
func (id ID) Hash() hash.Hash {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	if int(id) >= len(symbols.ids) {
		log.Panicf("symbol: id %d not found", id)
	}
	return symbols.ids[id].hash
}
