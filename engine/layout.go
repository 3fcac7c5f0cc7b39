package engine

import (
	"fmt"

	"github.com/maxpert/fbsql/sqltype"
)

// MaxVaryingLength is the largest declared length of a TEXT or VARYING slot.
const MaxVaryingLength = 32765

// Allocate lays out a message the way the bundled engines do: each slot is
// aligned to its type's alignment and followed by a 2-byte null indicator
// aligned to 2. Every column is reported nullable when its code carries the
// nullable bit.
func Allocate(slots []SlotSpec) (*Descriptor, error) {
	desc := &Descriptor{Columns: make([]Column, len(slots))}

	var length uint32
	for i, s := range slots {
		base := s.Type.Base()
		if !sqltype.IsKnown(base) {
			return nil, fmt.Errorf("slot %d: unknown type code %d", i, uint32(s.Type))
		}

		slotLen := s.Length
		if sqltype.IsVariableWidth(base) {
			if slotLen > MaxVaryingLength {
				return nil, fmt.Errorf("slot %d: %s length %d exceeds %d", i, base, slotLen, MaxVaryingLength)
			}
		} else {
			slotLen, _ = sqltype.Width(base)
		}

		col := Column{
			Type:     base,
			SubType:  s.SubType,
			Scale:    s.Scale,
			Length:   slotLen,
			Nullable: s.Type.IsNullable(),
			Name:     s.Name,
			Alias:    s.Alias,
		}
		if col.Alias == "" {
			col.Alias = col.Name
		}

		col.Offset = align(length, sqltype.Alignment(base))
		length = col.Offset + col.Size()
		col.NullOffset = align(length, 2)
		length = col.NullOffset + 2

		desc.Columns[i] = col
	}
	desc.Length = length

	return desc, nil
}

func align(n, to uint32) uint32 {
	return (n + to - 1) &^ (to - 1)
}
