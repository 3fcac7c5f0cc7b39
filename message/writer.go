package message

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
)

// nullIndicator is -1 as a 16-bit word. Readers only test for nonzero.
const nullIndicator uint16 = 0xFFFF

// RowWriter places values into the slots of one message buffer.
type RowWriter struct {
	desc *engine.Descriptor
	buf  []byte
}

// NewRowWriter returns a writer over buf, which must be at least as long as
// the descriptor says.
func NewRowWriter(desc *engine.Descriptor, buf []byte) (*RowWriter, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrLogic)
	}
	if uint32(len(buf)) < desc.Length {
		return nil, &BoundsError{Column: -1, Need: int(desc.Length), Have: len(buf)}
	}
	return &RowWriter{desc: desc, buf: buf}, nil
}

// Buffer returns the underlying buffer.
func (w *RowWriter) Buffer() []byte {
	return w.buf
}

// SetNull marks column i null. The payload bytes are left untouched.
func (w *RowWriter) SetNull(i int) error {
	col, err := w.column(i)
	if err != nil {
		return err
	}
	if err := w.checkNullSlot(i, col); err != nil {
		return err
	}
	binary.NativeEndian.PutUint16(w.buf[col.NullOffset:], nullIndicator)
	return nil
}

// Set writes v into column i and clears its null indicator. Nothing is
// written when v does not fit the column.
func (w *RowWriter) Set(i int, v Value) error {
	col, err := w.column(i)
	if err != nil {
		return err
	}
	if v.kind == KindNull {
		return w.SetNull(i)
	}
	if v.kind == KindInvalid || v.kind.Code() == 0 {
		return &UnsupportedTypeError{Type: v.kind.String()}
	}
	if !assignable(v.kind, col.Type) {
		return &ConversionError{From: v.kind.String(), To: col.Type.String()}
	}
	if err := w.checkNullSlot(i, col); err != nil {
		return err
	}

	end := uint64(col.Offset) + col.Extent()
	if end > uint64(len(w.buf)) {
		return &BoundsError{Column: i, Need: int(end), Have: len(w.buf)}
	}
	slot := w.buf[col.Offset:end]

	switch col.Type {
	case sqltype.Varying:
		if len(v.data) > int(col.Length) || len(v.data) > math.MaxUint16 {
			return &BoundsError{Column: i, Need: len(v.data), Have: int(min(col.Length, math.MaxUint16))}
		}
		binary.LittleEndian.PutUint16(slot, uint16(len(v.data)))
		copy(slot[2:], v.data)
	default:
		if len(v.data) > len(slot) {
			return &BoundsError{Column: i, Need: len(v.data), Have: len(slot)}
		}
		copy(slot, v.data)
	}

	binary.NativeEndian.PutUint16(w.buf[col.NullOffset:], 0)
	return nil
}

func (w *RowWriter) column(i int) (engine.Column, error) {
	if i < 0 || i >= len(w.desc.Columns) {
		return engine.Column{}, &IndexError{Index: i, Count: len(w.desc.Columns)}
	}
	return w.desc.Columns[i], nil
}

func (w *RowWriter) checkNullSlot(i int, col engine.Column) error {
	if uint64(col.NullOffset)+2 > uint64(len(w.buf)) {
		return &BoundsError{Column: i, Need: int(uint64(col.NullOffset) + 2), Have: len(w.buf)}
	}
	return nil
}

// assignable reports whether a value of kind k may be stored in a column of
// type t. Text and octets go into either CHAR or VARCHAR slots.
func assignable(k Kind, t sqltype.Code) bool {
	switch k {
	case KindFixedText, KindVarText, KindOctets:
		return sqltype.IsVariableWidth(t)
	}
	return k.Code() == t
}
