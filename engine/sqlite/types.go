package sqlite

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
)

// declPattern splits a declared type such as "NUMERIC(10, 2)"
var declPattern = regexp.MustCompile(`^\s*([A-Z][A-Z0-9_ ]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)

// maxInt64Precision is the largest NUMERIC precision held in a BIGINT slot
const maxInt64Precision = 18

// slotForDecl maps a declared column type to a slot. ok is false for
// undeclared types, whose slot is inferred from a value instead.
func slotForDecl(decl string, varcharLen uint32) (spec engine.SlotSpec, ok bool) {
	m := declPattern.FindStringSubmatch(strings.ToUpper(decl))
	if m == nil {
		return engine.SlotSpec{}, false
	}
	name := strings.Join(strings.Fields(m[1]), " ")
	length, hasLength := atoi(m[2])
	scale, _ := atoi(m[3])

	switch name {
	case "BOOLEAN", "BOOL":
		spec.Type = sqltype.Boolean
	case "SMALLINT", "TINYINT":
		spec.Type = sqltype.Short
	case "INT", "INTEGER", "MEDIUMINT":
		// SQLite integers are 64-bit whatever their declaration says
		spec.Type = sqltype.Int64
	case "BIGINT", "INT8":
		spec.Type = sqltype.Int64
	case "INT128", "HUGEINT":
		spec.Type = sqltype.Int128
	case "NUMERIC", "DECIMAL":
		spec.Type = sqltype.Int64
		if hasLength && length > maxInt64Precision {
			spec.Type = sqltype.Int128
		}
		spec.Scale = -int32(scale)
	case "REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION":
		spec.Type = sqltype.Double
	case "CHAR", "CHARACTER", "NCHAR":
		spec.Type = sqltype.Text
		spec.Length = 1
		if hasLength {
			spec.Length = uint32(length)
		}
	case "VARCHAR", "CHARACTER VARYING", "NVARCHAR":
		spec.Type = sqltype.Varying
		spec.Length = varcharLen
		if hasLength {
			spec.Length = uint32(length)
		}
	case "TEXT", "STRING":
		// Unbounded in SQLite, so only a declared length makes it VARCHAR
		if hasLength {
			spec.Type = sqltype.Varying
			spec.Length = uint32(length)
			break
		}
		spec.Type = sqltype.Blob
		spec.SubType = sqltype.BlobText
	case "VARBINARY", "BINARY":
		spec.Type = sqltype.Varying
		spec.SubType = sqltype.CharsetOctets
		spec.Length = varcharLen
		if hasLength {
			spec.Length = uint32(length)
		}
	case "BLOB":
		spec.Type = sqltype.Blob
		spec.SubType = sqltype.BlobBinary
	case "CLOB", "BLOB SUB_TYPE TEXT":
		spec.Type = sqltype.Blob
		spec.SubType = sqltype.BlobText
	case "DATE":
		spec.Type = sqltype.Date
	case "TIME":
		spec.Type = sqltype.Time
	case "TIMESTAMP", "DATETIME":
		spec.Type = sqltype.Timestamp
	case "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE":
		spec.Type = sqltype.TimestampTZ
	default:
		return engine.SlotSpec{}, false
	}

	if spec.Length > engine.MaxVaryingLength {
		spec.Length = engine.MaxVaryingLength
	}
	return spec, true
}

// slotForValue infers a slot from a value returned by the driver
func slotForValue(v interface{}, varcharLen uint32) engine.SlotSpec {
	switch x := v.(type) {
	case int64:
		return engine.SlotSpec{Type: sqltype.Int64}
	case float64:
		return engine.SlotSpec{Type: sqltype.Double}
	case bool:
		return engine.SlotSpec{Type: sqltype.Boolean}
	case time.Time:
		return engine.SlotSpec{Type: sqltype.Timestamp}
	case []byte:
		return engine.SlotSpec{Type: sqltype.Varying, SubType: sqltype.CharsetOctets, Length: fitLength(len(x), varcharLen)}
	case string:
		return engine.SlotSpec{Type: sqltype.Varying, Length: fitLength(len(x), varcharLen)}
	}
	return engine.SlotSpec{Type: sqltype.Varying, Length: varcharLen}
}

// fitLength widens the default length when the first value is longer
func fitLength(n int, varcharLen uint32) uint32 {
	if uint32(n) <= varcharLen {
		return varcharLen
	}
	if n > engine.MaxVaryingLength {
		return engine.MaxVaryingLength
	}
	return uint32(n)
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
