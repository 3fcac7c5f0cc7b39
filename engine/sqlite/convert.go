package sqlite

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maxpert/fbsql/blob"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/temporal"
	"github.com/shopspring/decimal"
)

// tzLayout is how zoned timestamps are stored as text
const tzLayout = "2006-01-02 15:04:05.999999999-07:00"

// driverArgs decodes an input message into statement arguments
func (a *Attachment) driverArgs(in *engine.Descriptor, buf []byte) ([]interface{}, error) {
	if in == nil {
		return nil, nil
	}
	row, err := message.NewRow(in, buf)
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, row.Count())
	for i := range args {
		f, err := row.Field(i)
		if err != nil {
			return nil, err
		}
		if args[i], err = a.driverArg(f); err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
	}
	return args, nil
}

func (a *Attachment) driverArg(f message.Field) (interface{}, error) {
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
		d, err := f.AsDecimal()
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case sqltype.Int128:
		d, err := f.AsDecimal()
		if err != nil {
			return nil, err
		}
		if d.Exponent() == 0 && d.BigInt().IsInt64() {
			return d.IntPart(), nil
		}
		return d.String(), nil
	case sqltype.Float, sqltype.Double:
		return f.AsFloat64()
	case sqltype.Text, sqltype.Varying:
		if f.Charset() == sqltype.CharsetOctets {
			return f.AsBytes()
		}
		return f.AsString()
	case sqltype.Date:
		d, err := f.AsDate()
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case sqltype.Time:
		t, err := f.AsTime()
		if err != nil {
			return nil, err
		}
		return t.String(), nil
	case sqltype.Timestamp:
		ts, err := f.AsTimestamp()
		if err != nil {
			return nil, err
		}
		return ts.String(), nil
	case sqltype.TimestampTZ, sqltype.TimestampTZEx:
		t, err := f.AsGoTime()
		if err != nil {
			return nil, err
		}
		return t.Format(tzLayout), nil
	case sqltype.Blob:
		blobID, err := f.AsBlobID()
		if err != nil {
			return nil, err
		}
		return a.loadBlob(blobID, f.SubType())
	}
	return nil, fmt.Errorf("%s parameters are not supported by the sqlite engine", f.TypeName())
}

// loadBlob reads a whole blob for binding. Text blobs bind as strings.
func (a *Attachment) loadBlob(blobID engine.BlobID, subType int32) (interface{}, error) {
	s, err := blob.Open(a, blobID)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	data, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	if subType == sqltype.BlobText {
		return string(data), nil
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// storeBlob writes a column value into a new blob
func (a *Attachment) storeBlob(data []byte) (engine.BlobID, error) {
	s, err := blob.Create(a)
	if err != nil {
		return engine.BlobID{}, err
	}
	if err := s.Put(data); err != nil {
		s.Close()
		return engine.BlobID{}, err
	}
	if err := s.Close(); err != nil {
		return engine.BlobID{}, err
	}
	return s.ID(), nil
}

// columnValue converts a driver value into the Value stored in col
func (a *Attachment) columnValue(col engine.Column, src interface{}) (message.Value, error) {
	if src == nil {
		return message.NullValue(), nil
	}

	switch col.Type {
	case sqltype.Boolean:
		switch x := src.(type) {
		case bool:
			return message.BoolValue(x), nil
		case int64:
			return message.BoolValue(x != 0), nil
		}
	case sqltype.Short:
		n, err := toInt64(src)
		if err != nil {
			return message.Value{}, err
		}
		if n < -1<<15 || n >= 1<<15 {
			return message.Value{}, fmt.Errorf("value %d overflows SMALLINT", n)
		}
		return message.Int16Value(int16(n)), nil
	case sqltype.Long:
		n, err := toInt64(src)
		if err != nil {
			return message.Value{}, err
		}
		if n < -1<<31 || n >= 1<<31 {
			return message.Value{}, fmt.Errorf("value %d overflows INTEGER", n)
		}
		return message.Int32Value(int32(n)), nil
	case sqltype.Int64:
		if col.Scale == 0 {
			n, err := toInt64(src)
			if err != nil {
				return message.Value{}, err
			}
			return message.Int64Value(n), nil
		}
		d, err := toDecimal(src)
		if err != nil {
			return message.Value{}, err
		}
		raw := d.Shift(-col.Scale).Round(0)
		if !raw.BigInt().IsInt64() {
			return message.Value{}, fmt.Errorf("value %s overflows NUMERIC(18, %d)", d, -col.Scale)
		}
		return message.Int64Value(raw.IntPart()), nil
	case sqltype.Int128:
		d, err := toDecimal(src)
		if err != nil {
			return message.Value{}, err
		}
		v, err := message.Int128FromBig(d.Shift(-col.Scale).Round(0).BigInt())
		if err != nil {
			return message.Value{}, err
		}
		return message.Int128Value(v), nil
	case sqltype.Double:
		switch x := src.(type) {
		case float64:
			return message.Float64Value(x), nil
		case int64:
			return message.Float64Value(float64(x)), nil
		}
	case sqltype.Text:
		s := toText(src)
		if len(s) < int(col.Length) {
			s += strings.Repeat(" ", int(col.Length)-len(s))
		}
		return message.TextValue(s), nil
	case sqltype.Varying:
		if col.SubType == sqltype.CharsetOctets {
			return message.OctetsValue([]byte(toText(src))), nil
		}
		return message.VarTextValue(toText(src)), nil
	case sqltype.Date:
		if t, ok := src.(time.Time); ok {
			return message.DateValue(temporal.DateFromTime(t)), nil
		}
		d, err := temporal.ParseDate(toText(src))
		if err != nil {
			return message.Value{}, err
		}
		return message.DateValue(d), nil
	case sqltype.Time:
		if t, ok := src.(time.Time); ok {
			return message.TimeValue(temporal.TimeFromTime(t)), nil
		}
		t, err := temporal.ParseTime(toText(src))
		if err != nil {
			return message.Value{}, err
		}
		return message.TimeValue(t), nil
	case sqltype.Timestamp:
		if t, ok := src.(time.Time); ok {
			return message.TimestampValue(temporal.TimestampFromTime(t)), nil
		}
		ts, err := temporal.ParseTimestamp(toText(src))
		if err != nil {
			return message.Value{}, err
		}
		return message.TimestampValue(ts), nil
	case sqltype.TimestampTZ:
		t, ok := src.(time.Time)
		if !ok {
			var err error
			if t, err = time.Parse(tzLayout, toText(src)); err != nil {
				return message.Value{}, fmt.Errorf("parse timestamp with time zone %q: %w", toText(src), err)
			}
		}
		return message.TimestampTZValue(temporal.TimestampTZFromTime(t)), nil
	case sqltype.Blob:
		blobID, err := a.storeBlob([]byte(toText(src)))
		if err != nil {
			return message.Value{}, err
		}
		return message.BlobValue(blobID).WithSubtype(col.SubType), nil
	}
	return message.Value{}, fmt.Errorf("cannot store %T in %s column %q", src, sqltype.DisplayName(col.Type), col.Name)
}

func toInt64(src interface{}) (int64, error) {
	switch x := src.(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", src)
}

func toDecimal(src interface{}) (decimal.Decimal, error) {
	switch x := src.(type) {
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(x)))
	}
	return decimal.Decimal{}, fmt.Errorf("cannot convert %T to a decimal", src)
}

func toText(src interface{}) string {
	switch x := src.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(tzLayout)
	}
	return fmt.Sprint(src)
}
