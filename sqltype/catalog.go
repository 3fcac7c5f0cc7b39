// Package sqltype is the catalog of engine column type codes.
//
// Codes follow the Firebird numbering. Every code is even; the odd neighbour
// (code+1) is the same type declared nullable. The catalog is a pure lookup
// table used for slot sizing and diagnostics.
package sqltype

// Code is an engine column type code, possibly carrying the nullable bit.
type Code uint32

const (
	Varying       Code = 448
	Text          Code = 452
	Double        Code = 480
	Float         Code = 482
	Long          Code = 496
	Short         Code = 500
	Timestamp     Code = 510
	Blob          Code = 520
	DFloat        Code = 530
	Array         Code = 540
	Quad          Code = 550
	Time          Code = 560
	Date          Code = 570
	Int64         Code = 580
	TimestampTZEx Code = 32748
	TimeTZEx      Code = 32750
	Int128        Code = 32752
	TimestampTZ   Code = 32754
	TimeTZ        Code = 32756
	Dec16         Code = 32760
	Dec34         Code = 32762
	Boolean       Code = 32764
	Null          Code = 32766
)

// Character set ids carried as the subtype of TEXT/VARYING slots.
const (
	CharsetNone   int32 = 0
	CharsetOctets int32 = 1
)

// Blob subtypes.
const (
	BlobBinary int32 = 0
	BlobText   int32 = 1
)

// Unknown is the display name for codes outside the catalog.
const Unknown = "UNKNOWN"

// Base strips the nullable bit.
func (c Code) Base() Code {
	return c &^ 1
}

// AsNullable returns the nullable variant of the code.
func (c Code) AsNullable() Code {
	return c | 1
}

// IsNullable reports whether the nullable bit is set.
func (c Code) IsNullable() bool {
	return c&1 == 1
}

func (c Code) String() string {
	return DisplayName(c)
}

// DisplayName returns the SQL name of a type code. The nullable bit is ignored.
// Codes outside the catalog map to "UNKNOWN".
func DisplayName(c Code) string {
	switch c.Base() {
	case Array:
		return "ARRAY"
	case Blob:
		return "BLOB"
	case Boolean:
		return "BOOLEAN"
	case Dec16:
		return "DEC16"
	case Dec34:
		return "DEC34"
	case Double:
		return "DOUBLE"
	case DFloat:
		return "D_FLOAT"
	case Float:
		return "FLOAT"
	case Int128:
		return "INT128"
	case Int64:
		return "BIGINT"
	case Long:
		return "INT"
	case Short:
		return "SMALLINT"
	case Text:
		return "CHAR"
	case Timestamp:
		return "TIMESTAMP"
	case TimestampTZ:
		return "TIMESTAMP_TZ"
	case TimestampTZEx:
		return "TIMESTAMP_TZ_EX"
	case TimeTZ:
		return "TIME_TZ"
	case TimeTZEx:
		return "TIME_TZ_EX"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case Varying:
		return "VARCHAR"
	case Quad:
		return "QUAD"
	case Null:
		return "NULL"
	}
	return Unknown
}

// IsVariableWidth reports whether slots of this type take their length from
// the declaration rather than from the type (CHAR and VARCHAR).
func IsVariableWidth(c Code) bool {
	switch c.Base() {
	case Text, Varying:
		return true
	}
	return false
}

// IsKnown reports whether the code is part of the catalog.
func IsKnown(c Code) bool {
	return DisplayName(c) != Unknown
}

// Width returns the fixed slot width of a type. The second result is false
// for variable-width and unknown types.
func Width(c Code) (uint32, bool) {
	switch c.Base() {
	case Boolean:
		return 1, true
	case Short, Null:
		return 2, true
	case Long, Float, Date, Time:
		return 4, true
	case Int64, Double, DFloat, Dec16, Timestamp, TimeTZ, TimeTZEx:
		return 8, true
	case TimestampTZ, TimestampTZEx:
		return 12, true
	case Int128, Dec34, Blob, Array, Quad:
		return 16, true
	}
	return 0, false
}

// Alignment returns the byte alignment an engine applies to a slot of this type.
func Alignment(c Code) uint32 {
	switch c.Base() {
	case Text, Boolean:
		return 1
	case Varying, Short, Null:
		return 2
	case Long, Float, Date, Time, Timestamp, TimeTZ, TimeTZEx, TimestampTZ, TimestampTZEx:
		return 4
	case Int64, Double, DFloat, Dec16, Dec34, Int128, Blob, Array, Quad:
		return 8
	}
	return 1
}

// IsInteger reports whether the type stores a binary integer that may carry a scale.
func IsInteger(c Code) bool {
	switch c.Base() {
	case Short, Long, Int64, Int128:
		return true
	}
	return false
}
