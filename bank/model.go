// Package bank implements the bank text grammar: parsing bytes into an
// in-memory Bank and serializing a Bank back to bytes, per the header +
// indented-body format described in the specification.
package bank

// Bank is a named, numbered collection of registers. Register and
// address ids are non-negative integers; values are opaque byte
// strings. Within a bank, (reg, addr) uniquely identifies a cell.
type Bank struct {
	ID    uint64
	Title string
	Regs  map[uint64]map[uint64][]byte
}

// New returns an empty bank with the given id and title.
func New(id uint64, title string) *Bank {
	return &Bank{ID: id, Title: title, Regs: map[uint64]map[uint64][]byte{}}
}

// IsEmpty reports whether every register's address map is empty.
func (b *Bank) IsEmpty() bool {
	for _, addrs := range b.Regs {
		if len(addrs) > 0 {
			return false
		}
	}
	return true
}

// Get returns the value at (reg, addr) and whether it was present.
func (b *Bank) Get(reg, addr uint64) ([]byte, bool) {
	addrs, ok := b.Regs[reg]
	if !ok {
		return nil, false
	}
	v, ok := addrs[addr]
	return v, ok
}

// Set inserts or overwrites the value at (reg, addr).
func (b *Bank) Set(reg, addr uint64, value []byte) {
	addrs, ok := b.Regs[reg]
	if !ok {
		addrs = map[uint64][]byte{}
		b.Regs[reg] = addrs
	}
	addrs[addr] = value
}

// Delete removes the cell at (reg, addr), if present.
func (b *Bank) Delete(reg, addr uint64) {
	if addrs, ok := b.Regs[reg]; ok {
		delete(addrs, addr)
	}
}
