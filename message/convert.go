package message

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/maxpert/fbsql/temporal"
	"github.com/shopspring/decimal"
)

func (f Field) invalid(to string) error {
	telemetry.ConversionErrorsTotal.With(to).Inc()
	return &ConversionError{From: f.TypeName(), To: to}
}

func (f Field) u8() byte { return f.buf[f.col.Offset] }
func (f Field) i16() int16 { return int16(binary.NativeEndian.Uint16(f.buf[f.col.Offset:])) }
func (f Field) i32() int32 { return int32(binary.NativeEndian.Uint32(f.buf[f.col.Offset:])) }
func (f Field) i64() int64 { return int64(binary.NativeEndian.Uint64(f.buf[f.col.Offset:])) }
func (f Field) u16At(n uint32) uint16 {
	return binary.NativeEndian.Uint16(f.buf[f.col.Offset+n:])
}

// AsBool reads a BOOLEAN column.
func (f Field) AsBool() (bool, error) {
	if f.col.Type != sqltype.Boolean {
		return false, f.invalid("BOOLEAN")
	}
	return f.u8() != 0, nil
}

// AsInt16 reads SMALLINT and BOOLEAN columns. Scale is ignored.
func (f Field) AsInt16() (int16, error) {
	switch f.col.Type {
	case sqltype.Short:
		return f.i16(), nil
	case sqltype.Boolean:
		return int16(f.u8()), nil
	}
	return 0, f.invalid("SMALLINT")
}

// AsInt32 reads INT, SMALLINT and BOOLEAN columns. Scale is ignored.
func (f Field) AsInt32() (int32, error) {
	switch f.col.Type {
	case sqltype.Long:
		return f.i32(), nil
	case sqltype.Short:
		return int32(f.i16()), nil
	case sqltype.Boolean:
		return int32(f.u8()), nil
	}
	return 0, f.invalid("INT")
}

// AsInt64 reads BIGINT, INT, SMALLINT and BOOLEAN columns. Scale is ignored.
func (f Field) AsInt64() (int64, error) {
	switch f.col.Type {
	case sqltype.Int64:
		return f.i64(), nil
	case sqltype.Long:
		return int64(f.i32()), nil
	case sqltype.Short:
		return int64(f.i16()), nil
	case sqltype.Boolean:
		return int64(f.u8()), nil
	}
	return 0, f.invalid("BIGINT")
}

// AsInt128 reads INT128 columns. Narrower integers and BOOLEAN are zero
// extended from their own width into the low word.
func (f Field) AsInt128() (Int128, error) {
	switch f.col.Type {
	case sqltype.Int128:
		lo, hi := getWords(f.slot())
		return Int128{Lo: lo, Hi: hi}, nil
	case sqltype.Int64:
		return Int128{Lo: uint64(f.i64())}, nil
	case sqltype.Long:
		return Int128{Lo: uint64(uint32(f.i32()))}, nil
	case sqltype.Short:
		return Int128{Lo: uint64(uint16(f.i16()))}, nil
	case sqltype.Boolean:
		return Int128{Lo: uint64(f.u8())}, nil
	}
	return Int128{}, f.invalid("INT128")
}

// AsFloat64 reads DOUBLE and FLOAT columns, and scaled integer columns as
// raw * 10^scale.
func (f Field) AsFloat64() (float64, error) {
	switch f.col.Type {
	case sqltype.Double:
		return math.Float64frombits(uint64(f.i64())), nil
	case sqltype.Float:
		return float64(math.Float32frombits(uint32(f.i32()))), nil
	case sqltype.Int64, sqltype.Long, sqltype.Short:
		raw, _ := f.AsInt64()
		return ScaleFloat(raw, f.col.Scale), nil
	}
	return 0, f.invalid("DOUBLE")
}

// AsFloat32 reads FLOAT columns, and scaled integer columns as raw * 10^scale.
func (f Field) AsFloat32() (float32, error) {
	switch f.col.Type {
	case sqltype.Float:
		return math.Float32frombits(uint32(f.i32())), nil
	case sqltype.Int64, sqltype.Long, sqltype.Short:
		raw, _ := f.AsInt64()
		return float32(ScaleFloat(raw, f.col.Scale)), nil
	}
	return 0, f.invalid("FLOAT")
}

func (f Field) AsDec16() (Dec16, error) {
	if f.col.Type != sqltype.Dec16 {
		return Dec16{}, f.invalid("DEC16")
	}
	return Dec16{Bits: uint64(f.i64())}, nil
}

func (f Field) AsDec34() (Dec34, error) {
	if f.col.Type != sqltype.Dec34 {
		return Dec34{}, f.invalid("DEC34")
	}
	lo, hi := getWords(f.slot())
	return Dec34{Lo: lo, Hi: hi}, nil
}

// varying returns the payload of a VARYING slot.
func (f Field) varying() ([]byte, error) {
	n := binary.LittleEndian.Uint16(f.buf[f.col.Offset:])
	if uint32(n) > f.col.Length {
		return nil, &BoundsError{Column: f.index, Need: int(n), Have: int(f.col.Length)}
	}
	start := f.col.Offset + 2
	return f.buf[start : start+uint32(n)], nil
}

// AsString reads text columns verbatim, CHAR padding included. BOOLEAN,
// FLOAT and DOUBLE are rendered as decimal text and integer columns are
// rendered with their scale applied.
func (f Field) AsString() (string, error) {
	switch f.col.Type {
	case sqltype.Text:
		return string(f.slot()), nil
	case sqltype.Varying:
		b, err := f.varying()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case sqltype.Boolean:
		return strconv.FormatBool(f.u8() != 0), nil
	case sqltype.Float:
		v, _ := f.AsFloat32()
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case sqltype.Double:
		v, _ := f.AsFloat64()
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case sqltype.Short, sqltype.Long, sqltype.Int64:
		raw, _ := f.AsInt64()
		return FormatScaled(raw, f.col.Scale), nil
	}
	return "", f.invalid("VARCHAR")
}

// AsBytes returns a copy of the slot. VARYING columns return their payload.
func (f Field) AsBytes() ([]byte, error) {
	if f.col.Type == sqltype.Varying {
		b, err := f.varying()
		if err != nil {
			return nil, err
		}
		return append([]byte{}, b...), nil
	}
	return append([]byte{}, f.slot()...), nil
}

func (f Field) isTimestamp() bool {
	switch f.col.Type {
	case sqltype.Timestamp, sqltype.TimestampTZ, sqltype.TimestampTZEx:
		return true
	}
	return false
}

// AsDate reads DATE columns and the date part of timestamps.
func (f Field) AsDate() (temporal.Date, error) {
	if f.col.Type == sqltype.Date || f.isTimestamp() {
		return temporal.DateOf(getDate(f.slot())), nil
	}
	return temporal.Date{}, f.invalid("DATE")
}

// AsTime reads TIME columns and the time part of timestamps. For zoned
// timestamps the time is in UTC.
func (f Field) AsTime() (temporal.Time, error) {
	switch {
	case f.col.Type == sqltype.Time:
		return temporal.TimeOf(getTime(f.slot())), nil
	case f.isTimestamp():
		return temporal.TimeOf(getTime(f.slot()[4:])), nil
	}
	return temporal.Time{}, f.invalid("TIME")
}

// AsTimeTZ reads zoned times and the time part of zoned timestamps.
func (f Field) AsTimeTZ() (temporal.TimeTZ, error) {
	switch f.col.Type {
	case sqltype.TimeTZ, sqltype.TimeTZEx:
		return temporal.TimeTZ{UTCTime: temporal.TimeOf(getTime(f.slot())), Zone: f.u16At(4)}, nil
	case sqltype.TimestampTZ, sqltype.TimestampTZEx:
		return temporal.TimeTZ{UTCTime: temporal.TimeOf(getTime(f.slot()[4:])), Zone: f.u16At(8)}, nil
	}
	return temporal.TimeTZ{}, f.invalid("TIME_TZ")
}

// AsTimeTZEx reads TIME_TZ_EX columns and the time part of TIMESTAMP_TZ_EX.
func (f Field) AsTimeTZEx() (temporal.TimeTZEx, error) {
	switch f.col.Type {
	case sqltype.TimeTZEx:
		return temporal.TimeTZEx{
			UTCTime:   temporal.TimeOf(getTime(f.slot())),
			Zone:      f.u16At(4),
			ExtOffset: int16(f.u16At(6)),
		}, nil
	case sqltype.TimestampTZEx:
		return temporal.TimeTZEx{
			UTCTime:   temporal.TimeOf(getTime(f.slot()[4:])),
			Zone:      f.u16At(8),
			ExtOffset: int16(f.u16At(10)),
		}, nil
	}
	return temporal.TimeTZEx{}, f.invalid("TIME_TZ_EX")
}

// AsTimestamp reads timestamps, zoned ones in UTC.
func (f Field) AsTimestamp() (temporal.Timestamp, error) {
	if !f.isTimestamp() {
		return temporal.Timestamp{}, f.invalid("TIMESTAMP")
	}
	return temporal.TimestampOfISC(getTimestamp(f.slot())), nil
}

func (f Field) AsTimestampTZ() (temporal.TimestampTZ, error) {
	switch f.col.Type {
	case sqltype.TimestampTZ, sqltype.TimestampTZEx:
		return temporal.TimestampTZ{UTC: temporal.TimestampOfISC(getTimestamp(f.slot())), Zone: f.u16At(8)}, nil
	}
	return temporal.TimestampTZ{}, f.invalid("TIMESTAMP_TZ")
}

func (f Field) AsTimestampTZEx() (temporal.TimestampTZEx, error) {
	if f.col.Type != sqltype.TimestampTZEx {
		return temporal.TimestampTZEx{}, f.invalid("TIMESTAMP_TZ_EX")
	}
	return temporal.TimestampTZEx{
		UTC:       temporal.TimestampOfISC(getTimestamp(f.slot())),
		Zone:      f.u16At(8),
		ExtOffset: int16(f.u16At(10)),
	}, nil
}

// AsGoTime reads DATE and TIMESTAMP columns as UTC instants and zoned
// timestamps in their offset zone.
func (f Field) AsGoTime() (time.Time, error) {
	switch f.col.Type {
	case sqltype.Date:
		d, _ := f.AsDate()
		return d.In(time.UTC), nil
	case sqltype.Timestamp:
		ts, _ := f.AsTimestamp()
		return ts.In(time.UTC), nil
	case sqltype.TimestampTZ, sqltype.TimestampTZEx:
		ts, _ := f.AsTimestampTZ()
		return ts.Time(), nil
	}
	return time.Time{}, f.invalid("TIMESTAMP")
}

// AsBlobID reads the handle of a BLOB column.
func (f Field) AsBlobID() (engine.BlobID, error) {
	if f.col.Type != sqltype.Blob {
		return engine.BlobID{}, f.invalid("BLOB")
	}
	return engine.BlobIDFromBytes(f.slot())
}

// AsDecimal reads integer columns exactly with their scale, and floating
// point columns by value.
func (f Field) AsDecimal() (decimal.Decimal, error) {
	switch f.col.Type {
	case sqltype.Short, sqltype.Long, sqltype.Int64:
		raw, _ := f.AsInt64()
		return decimal.New(raw, f.col.Scale), nil
	case sqltype.Int128:
		v, _ := f.AsInt128()
		return decimal.NewFromBigInt(v.Big(), f.col.Scale), nil
	case sqltype.Float:
		v, _ := f.AsFloat32()
		return decimal.NewFromFloat32(v), nil
	case sqltype.Double:
		v, _ := f.AsFloat64()
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Decimal{}, f.invalid("DECIMAL")
}

// AsValue decodes the column into the Value its type maps to. Null columns
// decode as Null.
func (f Field) AsValue() (Value, error) {
	if f.IsNull() {
		return NullValue(), nil
	}

	var v Value
	switch f.col.Type {
	case sqltype.Text:
		s, _ := f.AsString()
		v = TextValue(s)
	case sqltype.Varying:
		b, err := f.varying()
		if err != nil {
			return Value{}, err
		}
		if f.col.SubType == sqltype.CharsetOctets {
			return OctetsValue(b), nil
		}
		v = VarTextValue(string(b))
	default:
		k, ok := codeKinds[f.col.Type]
		if !ok {
			return Value{}, f.invalid("VALUE")
		}
		v = Value{kind: k, data: append([]byte{}, f.slot()...)}
	}
	v.subtype = f.col.SubType
	return v, nil
}

var codeKinds = map[sqltype.Code]Kind{
	sqltype.Boolean:       KindBoolean,
	sqltype.Short:         KindInt16,
	sqltype.Long:          KindInt32,
	sqltype.Int64:         KindInt64,
	sqltype.Int128:        KindInt128,
	sqltype.Float:         KindFloat32,
	sqltype.Double:        KindFloat64,
	sqltype.Dec16:         KindDec16,
	sqltype.Dec34:         KindDec34,
	sqltype.Date:          KindDate,
	sqltype.Time:          KindTime,
	sqltype.TimeTZ:        KindTimeTZ,
	sqltype.TimeTZEx:      KindTimeTZEx,
	sqltype.Timestamp:     KindTimestamp,
	sqltype.TimestampTZ:   KindTimestampTZ,
	sqltype.TimestampTZEx: KindTimestampTZEx,
	sqltype.Blob:          KindBlob,
}
