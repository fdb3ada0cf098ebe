package eval

import "github.com/bits-and-blooms/bitset"

// EscapeMap records which bytes of the source line were escaped with a
// backslash or written inside quotes. Such bytes are never treated as glob
// metacharacters or tilde prefixes.
type EscapeMap struct {
	set bitset.BitSet
}

// Set marks the byte at offset.
func (m *EscapeMap) Set(offset int) {
	if offset >= 0 {
		m.set.Set(uint(offset))
	}
}

// Has reports whether the byte at offset is marked.
func (m *EscapeMap) Has(offset int) bool {
	return offset >= 0 && m.set.Test(uint(offset))
}

// Len returns the number of marked bytes.
func (m *EscapeMap) Len() int {
	return int(m.set.Count())
}

// Reset clears the map, keeping its storage.
func (m *EscapeMap) Reset() {
	m.set.ClearAll()
}
