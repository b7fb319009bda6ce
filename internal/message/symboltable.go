package message

import (
	binpkg "github.com/robert-malhotra/cosmohdf5/internal/binary"
)

// SymbolTable represents a symbol table message (type 0x0011).
// This message is used in version 1 object headers to point to the
// B-tree and local heap that define group membership.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binpkg.Reader) (*SymbolTable, error) {
	c := newCursor("symbol table message", data)
	m := &SymbolTable{BTreeAddress: c.num(r.OffsetSize()), LocalHeapAddress: c.num(r.OffsetSize())}
	if c.err != nil {
		return nil, c.err
	}
	return m, nil
}
