// Package message marshals typed values into engine row buffers and decodes
// engine row buffers back into typed values.
//
// A Value carries one parameter. Build lays a list of values out in a buffer
// described by an engine descriptor, and Row reads columns back out of a
// buffer the engine filled. Fixed-width slots use host byte order; VARYING
// slots start with a 2-byte little-endian length prefix and every slot is
// followed by a 2-byte null indicator where zero means not null.
package message

import (
	"encoding/binary"
	"math"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/temporal"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindFloat32
	KindFloat64
	KindDec16
	KindDec34
	KindFixedText
	KindVarText
	KindOctets
	KindDate
	KindTime
	KindTimeTZ
	KindTimeTZEx
	KindTimestamp
	KindTimestampTZ
	KindTimestampTZEx
	KindBlob
)

var kindCodes = [...]sqltype.Code{
	KindNull:          sqltype.Short,
	KindBoolean:       sqltype.Boolean,
	KindInt16:         sqltype.Short,
	KindInt32:         sqltype.Long,
	KindInt64:         sqltype.Int64,
	KindInt128:        sqltype.Int128,
	KindFloat32:       sqltype.Float,
	KindFloat64:       sqltype.Double,
	KindDec16:         sqltype.Dec16,
	KindDec34:         sqltype.Dec34,
	KindFixedText:     sqltype.Text,
	KindVarText:       sqltype.Varying,
	KindOctets:        sqltype.Varying,
	KindDate:          sqltype.Date,
	KindTime:          sqltype.Time,
	KindTimeTZ:        sqltype.TimeTZ,
	KindTimeTZEx:      sqltype.TimeTZEx,
	KindTimestamp:     sqltype.Timestamp,
	KindTimestampTZ:   sqltype.TimestampTZ,
	KindTimestampTZEx: sqltype.TimestampTZEx,
	KindBlob:          sqltype.Blob,
}

// Code returns the engine type code a value of this kind is registered with.
// Null registers as a SMALLINT placeholder. Invalid kinds return 0.
func (k Kind) Code() sqltype.Code {
	if k == KindInvalid || int(k) >= len(kindCodes) {
		return 0
	}
	return kindCodes[k]
}

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindOctets:
		return "OCTETS"
	case KindVarText:
		return "VARCHAR"
	case KindInvalid:
		return "INVALID"
	}
	if c := k.Code(); c != 0 {
		return sqltype.DisplayName(c)
	}
	return sqltype.Unknown
}

// Value is one typed parameter. The zero Value is invalid and is rejected
// when a message is built.
type Value struct {
	kind    Kind
	subtype int32
	// data holds the slot payload in host order for fixed-width kinds and
	// the raw bytes for text and octets.
	data []byte
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Subtype returns the subtype registered with the slot.
func (v Value) Subtype() int32 { return v.subtype }

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the payload length in bytes.
func (v Value) Len() int { return len(v.data) }

// WithSubtype returns a copy of v registered with subtype s.
func (v Value) WithSubtype(s int32) Value {
	v.subtype = s
	return v
}

// NullValue returns the Null variant.
func NullValue() Value {
	return Value{kind: KindNull}
}

func BoolValue(b bool) Value {
	var x byte
	if b {
		x = 1
	}
	return Value{kind: KindBoolean, data: []byte{x}}
}

func Int16Value(i int16) Value {
	return Value{kind: KindInt16, data: binary.NativeEndian.AppendUint16(nil, uint16(i))}
}

func Int32Value(i int32) Value {
	return Value{kind: KindInt32, data: binary.NativeEndian.AppendUint32(nil, uint32(i))}
}

func Int64Value(i int64) Value {
	return Value{kind: KindInt64, data: binary.NativeEndian.AppendUint64(nil, uint64(i))}
}

func Int128Value(i Int128) Value {
	return Value{kind: KindInt128, data: putWords(i.Lo, i.Hi)}
}

func Float32Value(f float32) Value {
	return Value{kind: KindFloat32, data: binary.NativeEndian.AppendUint32(nil, math.Float32bits(f))}
}

func Float64Value(f float64) Value {
	return Value{kind: KindFloat64, data: binary.NativeEndian.AppendUint64(nil, math.Float64bits(f))}
}

func Dec16Value(d Dec16) Value {
	return Value{kind: KindDec16, data: binary.NativeEndian.AppendUint64(nil, d.Bits)}
}

func Dec34Value(d Dec34) Value {
	return Value{kind: KindDec34, data: putWords(d.Lo, d.Hi)}
}

// TextValue is fixed text: a CHAR slot exactly as long as s.
func TextValue(s string) Value {
	return Value{kind: KindFixedText, data: []byte(s)}
}

// VarTextValue is varying text: a VARCHAR slot with a length prefix.
func VarTextValue(s string) Value {
	return Value{kind: KindVarText, data: []byte(s)}
}

// OctetsValue is a VARCHAR slot with the OCTETS character set.
func OctetsValue(b []byte) Value {
	return Value{kind: KindOctets, subtype: sqltype.CharsetOctets, data: append([]byte{}, b...)}
}

func DateValue(d temporal.Date) Value {
	return Value{kind: KindDate, data: putDate(nil, d.Encode())}
}

func TimeValue(t temporal.Time) Value {
	return Value{kind: KindTime, data: putTime(nil, t.Encode())}
}

func TimeTZValue(t temporal.TimeTZ) Value {
	b := putTime(nil, t.UTCTime.Encode())
	b = binary.NativeEndian.AppendUint16(b, t.Zone)
	b = append(b, 0, 0)
	return Value{kind: KindTimeTZ, data: b}
}

func TimeTZExValue(t temporal.TimeTZEx) Value {
	b := putTime(nil, t.UTCTime.Encode())
	b = binary.NativeEndian.AppendUint16(b, t.Zone)
	b = binary.NativeEndian.AppendUint16(b, uint16(t.ExtOffset))
	return Value{kind: KindTimeTZEx, data: b}
}

func TimestampValue(ts temporal.Timestamp) Value {
	return Value{kind: KindTimestamp, data: putTimestamp(nil, ts.Encode())}
}

func TimestampTZValue(ts temporal.TimestampTZ) Value {
	b := putTimestamp(nil, ts.UTC.Encode())
	b = binary.NativeEndian.AppendUint16(b, ts.Zone)
	b = append(b, 0, 0)
	return Value{kind: KindTimestampTZ, data: b}
}

func TimestampTZExValue(ts temporal.TimestampTZEx) Value {
	b := putTimestamp(nil, ts.UTC.Encode())
	b = binary.NativeEndian.AppendUint16(b, ts.Zone)
	b = binary.NativeEndian.AppendUint16(b, uint16(ts.ExtOffset))
	return Value{kind: KindTimestampTZEx, data: b}
}

// BlobValue binds an existing blob. The subtype defaults to binary.
func BlobValue(id engine.BlobID) Value {
	return Value{kind: KindBlob, subtype: sqltype.BlobBinary, data: id.Bytes()}
}

// Native returns the Go value held by v: nil for Null, string for text kinds,
// []byte for octets and the package or temporal struct types otherwise.
func (v Value) Native() any {
	d := v.data
	switch v.kind {
	case KindBoolean:
		return d[0] != 0
	case KindInt16:
		return int16(binary.NativeEndian.Uint16(d))
	case KindInt32:
		return int32(binary.NativeEndian.Uint32(d))
	case KindInt64:
		return int64(binary.NativeEndian.Uint64(d))
	case KindInt128:
		lo, hi := getWords(d)
		return Int128{Lo: lo, Hi: hi}
	case KindFloat32:
		return math.Float32frombits(binary.NativeEndian.Uint32(d))
	case KindFloat64:
		return math.Float64frombits(binary.NativeEndian.Uint64(d))
	case KindDec16:
		return Dec16{Bits: binary.NativeEndian.Uint64(d)}
	case KindDec34:
		lo, hi := getWords(d)
		return Dec34{Lo: lo, Hi: hi}
	case KindFixedText, KindVarText:
		return string(d)
	case KindOctets:
		return append([]byte{}, d...)
	case KindDate:
		return temporal.DateOf(getDate(d))
	case KindTime:
		return temporal.TimeOf(getTime(d))
	case KindTimeTZ:
		return temporal.TimeTZ{UTCTime: temporal.TimeOf(getTime(d)), Zone: binary.NativeEndian.Uint16(d[4:])}
	case KindTimeTZEx:
		return temporal.TimeTZEx{
			UTCTime:   temporal.TimeOf(getTime(d)),
			Zone:      binary.NativeEndian.Uint16(d[4:]),
			ExtOffset: int16(binary.NativeEndian.Uint16(d[6:])),
		}
	case KindTimestamp:
		return temporal.TimestampOfISC(getTimestamp(d))
	case KindTimestampTZ:
		return temporal.TimestampTZ{UTC: temporal.TimestampOfISC(getTimestamp(d)), Zone: binary.NativeEndian.Uint16(d[8:])}
	case KindTimestampTZEx:
		return temporal.TimestampTZEx{
			UTC:       temporal.TimestampOfISC(getTimestamp(d)),
			Zone:      binary.NativeEndian.Uint16(d[8:]),
			ExtOffset: int16(binary.NativeEndian.Uint16(d[10:])),
		}
	case KindBlob:
		id, _ := engine.BlobIDFromBytes(d)
		return id
	}
	return nil
}

func putWords(lo, hi uint64) []byte {
	b := binary.NativeEndian.AppendUint64(nil, lo)
	return binary.NativeEndian.AppendUint64(b, hi)
}

func getWords(b []byte) (lo, hi uint64) {
	return binary.NativeEndian.Uint64(b[0:8]), binary.NativeEndian.Uint64(b[8:16])
}

func putDate(b []byte, d temporal.ISCDate) []byte {
	return binary.NativeEndian.AppendUint32(b, uint32(d))
}

func getDate(b []byte) temporal.ISCDate {
	return temporal.ISCDate(int32(binary.NativeEndian.Uint32(b)))
}

func putTime(b []byte, t temporal.ISCTime) []byte {
	return binary.NativeEndian.AppendUint32(b, uint32(t))
}

func getTime(b []byte) temporal.ISCTime {
	return temporal.ISCTime(binary.NativeEndian.Uint32(b))
}

func putTimestamp(b []byte, ts temporal.ISCTimestamp) []byte {
	b = putDate(b, ts.Date)
	return putTime(b, ts.Time)
}

func getTimestamp(b []byte) temporal.ISCTimestamp {
	return temporal.ISCTimestamp{Date: getDate(b[0:4]), Time: getTime(b[4:8])}
}
