package message

import (
	"encoding/binary"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
)

// Row reads columns out of a message buffer. The buffer is usually refilled
// by every fetch; values returned by Field are copies and stay valid.
type Row struct {
	desc *engine.Descriptor
	buf  []byte
}

// NewRow checks that every slot of desc lies inside buf.
func NewRow(desc *engine.Descriptor, buf []byte) (*Row, error) {
	if desc == nil {
		desc = &engine.Descriptor{}
	}
	if uint32(len(buf)) < desc.Length {
		return nil, &BoundsError{Column: -1, Need: int(desc.Length), Have: len(buf)}
	}
	if err := desc.Validate(); err != nil {
		return nil, engine.Wrap("describe", err)
	}
	return &Row{desc: desc, buf: buf}, nil
}

// Count returns the number of columns.
func (r *Row) Count() int {
	return len(r.desc.Columns)
}

// Descriptor returns the layout the row was built over.
func (r *Row) Descriptor() *engine.Descriptor {
	return r.desc
}

// Field returns column i.
func (r *Row) Field(i int) (Field, error) {
	if i < 0 || i >= len(r.desc.Columns) {
		return Field{}, &IndexError{Index: i, Count: len(r.desc.Columns)}
	}
	return Field{index: i, col: r.desc.Columns[i], buf: r.buf}, nil
}

// IsNull reports whether column i is null.
func (r *Row) IsNull(i int) (bool, error) {
	f, err := r.Field(i)
	if err != nil {
		return false, err
	}
	return f.IsNull(), nil
}

// Values decodes every column with AsValue.
func (r *Row) Values() ([]Value, error) {
	out := make([]Value, len(r.desc.Columns))
	for i := range r.desc.Columns {
		f, _ := r.Field(i)
		v, err := f.AsValue()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Field is one column of a row.
//
// Conversions do not look at the null indicator: reading a null column
// decodes whatever bytes the slot holds. Check IsNull first.
type Field struct {
	index int
	col   engine.Column
	buf   []byte
}

func (f Field) Index() int { return f.index }
func (f Field) Column() engine.Column { return f.col }
func (f Field) Type() sqltype.Code { return f.col.Type }
func (f Field) TypeName() string { return sqltype.DisplayName(f.col.Type) }
func (f Field) SubType() int32 { return f.col.SubType }
func (f Field) Scale() int32 { return f.col.Scale }
func (f Field) Length() uint32 { return f.col.Length }
func (f Field) Nullable() bool { return f.col.Nullable }
func (f Field) Name() string { return f.col.Name }
func (f Field) Alias() string { return f.col.Alias }
func (f Field) Relation() string { return f.col.Relation }

// Charset returns the character set id of a text column.
func (f Field) Charset() int32 {
	return f.col.SubType
}

// IsNull reports whether the null indicator is set.
func (f Field) IsNull() bool {
	return binary.NativeEndian.Uint16(f.buf[f.col.NullOffset:]) != 0
}

// slot returns the bytes of the slot, including the length prefix of VARYING.
func (f Field) slot() []byte {
	return f.buf[f.col.Offset : uint64(f.col.Offset)+f.col.Extent()]
}
