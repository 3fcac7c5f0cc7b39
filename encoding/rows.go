package encoding

import (
	"fmt"
	"io"

	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/vmihailenco/msgpack/v5"
)

// ExportValue converts a column into a msgpack friendly value: nil for null,
// bool, int64 for unscaled integers, float64, string for text and scaled or
// 128-bit numbers, []byte for octets, and the textual form of temporal
// values, decimal floats and blob ids.
func ExportValue(f message.Field) (interface{}, error) {
	if f.IsNull() {
		return nil, nil
	}

	switch f.Type() {
	case sqltype.Boolean:
		return f.AsBool()
	case sqltype.Short, sqltype.Long, sqltype.Int64:
		if f.Scale() == 0 {
			return f.AsInt64()
		}
		return f.AsString()
	case sqltype.Int128:
		d, err := f.AsDecimal()
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case sqltype.Float, sqltype.Double:
		return f.AsFloat64()
	case sqltype.Text, sqltype.Varying:
		if f.SubType() == sqltype.CharsetOctets {
			return f.AsBytes()
		}
		return f.AsString()
	case sqltype.Dec16:
		return stringOf(f.AsDec16())
	case sqltype.Dec34:
		return stringOf(f.AsDec34())
	case sqltype.Date:
		return stringOf(f.AsDate())
	case sqltype.Time:
		return stringOf(f.AsTime())
	case sqltype.TimeTZ:
		return stringOf(f.AsTimeTZ())
	case sqltype.TimeTZEx:
		return stringOf(f.AsTimeTZEx())
	case sqltype.Timestamp:
		return stringOf(f.AsTimestamp())
	case sqltype.TimestampTZ:
		return stringOf(f.AsTimestampTZ())
	case sqltype.TimestampTZEx:
		return stringOf(f.AsTimestampTZEx())
	case sqltype.Blob:
		return stringOf(f.AsBlobID())
	}
	return nil, fmt.Errorf("cannot export column %d of type %s", f.Index(), f.TypeName())
}

func stringOf[T fmt.Stringer](v T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return v.String(), nil
}

// ExportRow converts every column of row with ExportValue.
func ExportRow(row *message.Row) ([]interface{}, error) {
	out := make([]interface{}, row.Count())
	for i := range out {
		f, err := row.Field(i)
		if err != nil {
			return nil, err
		}
		if out[i], err = ExportValue(f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RowEncoder writes a header with the column aliases followed by one msgpack
// array per row.
type RowEncoder struct {
	enc         *msgpack.Encoder
	wroteHeader bool
}

// NewRowEncoder creates an encoder writing to w.
func NewRowEncoder(w io.Writer) *RowEncoder {
	return &RowEncoder{enc: msgpack.NewEncoder(w)}
}

// Encode writes row, preceded by the header on the first call.
func (e *RowEncoder) Encode(row *message.Row) error {
	if !e.wroteHeader {
		cols := row.Descriptor().Columns
		names := make([]string, len(cols))
		for i, c := range cols {
			names[i] = c.Alias
		}
		if err := e.enc.Encode(names); err != nil {
			return err
		}
		e.wroteHeader = true
	}

	values, err := ExportRow(row)
	if err != nil {
		return err
	}
	return e.enc.Encode(values)
}
