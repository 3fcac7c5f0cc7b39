package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/temporal"
)

// paramList collects repeated -param flags
type paramList []string

func (p *paramList) String() string {
	return strings.Join(*p, ",")
}

func (p *paramList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// parseParam turns "type:value" into a Value. A bare "null" is Null and a
// value without a type prefix binds as VARCHAR.
func parseParam(s string) (message.Value, error) {
	if s == "null" {
		return message.NullValue(), nil
	}
	typ, val, ok := strings.Cut(s, ":")
	if !ok {
		return message.VarTextValue(s), nil
	}

	switch strings.ToLower(typ) {
	case "bool", "boolean":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.BoolValue(b), nil
	case "smallint", "short":
		n, err := strconv.ParseInt(val, 10, 16)
		if err != nil {
			return message.Value{}, err
		}
		return message.Int16Value(int16(n)), nil
	case "int", "integer":
		n, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return message.Value{}, err
		}
		return message.Int32Value(int32(n)), nil
	case "bigint":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return message.Value{}, err
		}
		return message.Int64Value(n), nil
	case "int128":
		n, err := message.ParseInt128(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.Int128Value(n), nil
	case "float":
		f, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return message.Value{}, err
		}
		return message.Float32Value(float32(f)), nil
	case "double":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return message.Value{}, err
		}
		return message.Float64Value(f), nil
	case "char":
		return message.TextValue(val), nil
	case "varchar", "str", "string":
		return message.VarTextValue(val), nil
	case "hex":
		b, err := decodeHex(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.OctetsValue(b), nil
	case "file":
		b, err := os.ReadFile(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.OctetsValue(b), nil
	case "date":
		d, err := temporal.ParseDate(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.DateValue(d), nil
	case "time":
		t, err := temporal.ParseTime(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.TimeValue(t), nil
	case "timestamp":
		ts, err := temporal.ParseTimestamp(val)
		if err != nil {
			return message.Value{}, err
		}
		return message.TimestampValue(ts), nil
	}
	return message.Value{}, fmt.Errorf("unknown parameter type %q", typ)
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex value %q has odd length", s)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		b, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("hex value %q: %w", s, err)
		}
		out[i] = byte(b)
	}
	return out, nil
}
