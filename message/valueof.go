package message

import (
	"fmt"
	"reflect"
	"time"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/temporal"
)

// blobIdentifier is satisfied by open blob streams.
type blobIdentifier interface {
	ID() engine.BlobID
}

// ValueOf maps a Go value onto a Value. int and int32 bind as INT, string as
// fixed text, []byte as octets and time.Time as a TIMESTAMP in its own
// location. nil, including a nil blob stream, binds as Null.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int16:
		return Int16Value(v), nil
	case int32:
		return Int32Value(v), nil
	case int:
		if int64(v) != int64(int32(v)) {
			return Int64Value(int64(v)), nil
		}
		return Int32Value(int32(v)), nil
	case int64:
		return Int64Value(v), nil
	case Int128:
		return Int128Value(v), nil
	case float32:
		return Float32Value(v), nil
	case float64:
		return Float64Value(v), nil
	case Dec16:
		return Dec16Value(v), nil
	case Dec34:
		return Dec34Value(v), nil
	case string:
		return TextValue(v), nil
	case []byte:
		return OctetsValue(v), nil
	case temporal.Date:
		return DateValue(v), nil
	case temporal.Time:
		return TimeValue(v), nil
	case temporal.TimeTZ:
		return TimeTZValue(v), nil
	case temporal.TimeTZEx:
		return TimeTZExValue(v), nil
	case temporal.Timestamp:
		return TimestampValue(v), nil
	case temporal.TimestampTZ:
		return TimestampTZValue(v), nil
	case temporal.TimestampTZEx:
		return TimestampTZExValue(v), nil
	case time.Time:
		return TimestampValue(temporal.TimestampFromTime(v)), nil
	case engine.BlobID:
		return BlobValue(v), nil
	case blobIdentifier:
		// A nil *blob.Stream arrives here as a non-nil interface
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return NullValue(), nil
		}
		return BlobValue(v.ID()), nil
	}
	return Value{}, &UnsupportedTypeError{Type: fmt.Sprintf("%T", x)}
}
