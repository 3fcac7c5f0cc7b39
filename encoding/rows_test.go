package encoding

import (
	"bytes"
	"testing"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/temporal"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type allocator struct{}

func (allocator) AllocateDescriptor(slots []engine.SlotSpec) (*engine.Descriptor, error) {
	return engine.Allocate(slots)
}

func buildRow(t *testing.T, values ...message.Value) *message.Row {
	t.Helper()
	msg, err := message.Build(allocator{}, values)
	require.NoError(t, err)
	row, err := msg.Row()
	require.NoError(t, err)
	return row
}

func TestExportRow(t *testing.T) {
	row := buildRow(t,
		message.NullValue(),
		message.BoolValue(true),
		message.Int32Value(-7),
		message.Int128Value(message.Int128FromInt64(42)),
		message.Float64Value(1.5),
		message.VarTextValue("hello"),
		message.OctetsValue([]byte{1, 2}),
		message.DateValue(temporal.Date{Year: 2024, Month: 2, Day: 29}),
		message.BlobValue(engine.BlobID{Hi: 1, Lo: 2}),
	)

	got, err := ExportRow(row)
	require.NoError(t, err)
	require.Equal(t, []interface{}{
		nil,
		true,
		int64(-7),
		"42",
		1.5,
		"hello",
		[]byte{1, 2},
		"2024-02-29",
		"0000000000000001:0000000000000002",
	}, got)
}

func TestExportValue_ScaledInteger(t *testing.T) {
	desc, err := engine.Allocate([]engine.SlotSpec{{Type: sqltype.Int64, Scale: -2, Name: "PRICE"}})
	require.NoError(t, err)

	buf := make([]byte, desc.Length)
	w, err := message.NewRowWriter(desc, buf)
	require.NoError(t, err)
	require.NoError(t, w.Set(0, message.Int64Value(12345)))

	row, err := message.NewRow(desc, buf)
	require.NoError(t, err)
	f, err := row.Field(0)
	require.NoError(t, err)

	v, err := ExportValue(f)
	require.NoError(t, err)
	require.Equal(t, "123.45", v)
}

func TestRowEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewRowEncoder(&buf)

	require.NoError(t, enc.Encode(buildRow(t, message.Int16Value(1), message.VarTextValue("a"))))
	require.NoError(t, enc.Encode(buildRow(t, message.Int16Value(2), message.VarTextValue("b"))))

	dec := msgpack.NewDecoder(&buf)
	var header []string
	require.NoError(t, dec.Decode(&header))
	require.Len(t, header, 2)

	for _, want := range []struct {
		id   int64
		text string
	}{{1, "a"}, {2, "b"}} {
		var row []interface{}
		require.NoError(t, dec.Decode(&row))
		require.Len(t, row, 2)
		require.EqualValues(t, want.id, row[0])
		require.Equal(t, want.text, row[1])
	}
}
