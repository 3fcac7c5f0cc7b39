package sqlite

import (
	"strings"
	"testing"

	"github.com/maxpert/fbsql/blob"
	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachment(t *testing.T, cacheSize int) *Attachment {
	t.Helper()
	store, err := blobstore.Open(blobstore.Options{InMemory: true, NodeID: 9})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	att, err := Open(Options{
		Path:                 ":memory:",
		StatementCacheSize:   cacheSize,
		DefaultVarcharLength: 64,
	}, store)
	require.NoError(t, err)
	t.Cleanup(func() { att.Close() })
	return att
}

func exec(t *testing.T, att *Attachment, query string, values ...message.Value) int64 {
	t.Helper()
	stmt, err := att.Prepare(query)
	require.NoError(t, err)
	defer stmt.Close()

	msg, err := message.Build(att, values)
	require.NoError(t, err)
	var n int64
	if msg == nil {
		n, err = stmt.Execute(nil, nil)
	} else {
		n, err = stmt.Execute(msg.Descriptor, msg.Buffer)
	}
	require.NoError(t, err)
	return n
}

func query(t *testing.T, att *Attachment, q string, values ...message.Value) []*message.Row {
	t.Helper()
	stmt, err := att.Prepare(q)
	require.NoError(t, err)
	defer stmt.Close()

	msg, err := message.Build(att, values)
	require.NoError(t, err)
	var cur engine.Cursor
	if msg == nil {
		cur, err = stmt.OpenCursor(nil, nil)
	} else {
		cur, err = stmt.OpenCursor(msg.Descriptor, msg.Buffer)
	}
	require.NoError(t, err)
	defer cur.Close()

	var rows []*message.Row
	for {
		buf := make([]byte, cur.Descriptor().Length)
		ok, err := cur.FetchNext(buf)
		require.NoError(t, err)
		if !ok {
			return rows
		}
		row, err := message.NewRow(cur.Descriptor(), buf)
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func field(t *testing.T, row *message.Row, i int) message.Field {
	t.Helper()
	f, err := row.Field(i)
	require.NoError(t, err)
	return f
}

func TestInsertAndSelect(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, `CREATE TABLE items (
		id INTEGER, name VARCHAR(20), price NUMERIC(10,2), weight DOUBLE,
		added DATE, seen TIMESTAMP, active BOOLEAN, note VARCHAR(10))`)

	n := exec(t, att, "INSERT INTO items VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		message.Int32Value(1),
		message.VarTextValue("widget"),
		message.VarTextValue("123.45"),
		message.Float64Value(2.5),
		message.DateValue(temporal.Date{Year: 2024, Month: 2, Day: 29}),
		message.TimestampValue(temporal.Timestamp{
			Date: temporal.Date{Year: 2024, Month: 3, Day: 1},
			Time: temporal.Time{Hours: 12, Minutes: 30, Seconds: 45, Fractions: 1234},
		}),
		message.BoolValue(true),
		message.NullValue(),
	)
	assert.Equal(t, int64(1), n)

	rows := query(t, att, "SELECT id, name, price, weight, added, seen, active, note FROM items WHERE id = ?",
		message.Int64Value(1))
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, sqltype.Int64, field(t, row, 0).Type())
	id, err := field(t, row, 0).AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	name := field(t, row, 1)
	assert.Equal(t, sqltype.Varying, name.Type())
	assert.Equal(t, uint32(20), name.Length())
	assert.Equal(t, "name", name.Name())
	s, err := name.AsString()
	require.NoError(t, err)
	assert.Equal(t, "widget", s)

	price := field(t, row, 2)
	assert.Equal(t, int32(-2), price.Scale())
	s, err = price.AsString()
	require.NoError(t, err)
	assert.Equal(t, "123.45", s)

	w, err := field(t, row, 3).AsFloat64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, w)

	d, err := field(t, row, 4).AsDate()
	require.NoError(t, err)
	assert.Equal(t, temporal.Date{Year: 2024, Month: 2, Day: 29}, d)

	ts, err := field(t, row, 5).AsTimestamp()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 12:30:45.1234", ts.String())

	active, err := field(t, row, 6).AsBool()
	require.NoError(t, err)
	assert.True(t, active)

	assert.True(t, field(t, row, 7).IsNull())
}

func TestUndeclaredColumns(t *testing.T) {
	att := newAttachment(t, 8)
	rows := query(t, att, "SELECT 1 + 1, 'abc', 0.5, NULL")
	require.Len(t, rows, 1)

	f := field(t, rows[0], 0)
	assert.Equal(t, sqltype.Int64, f.Type())
	v, err := f.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	f = field(t, rows[0], 1)
	assert.Equal(t, sqltype.Varying, f.Type())
	s, err := f.AsString()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	assert.Equal(t, sqltype.Double, field(t, rows[0], 2).Type())
	assert.True(t, field(t, rows[0], 3).IsNull())
}

func TestEmptyResult(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, "CREATE TABLE t (a INTEGER)")
	rows := query(t, att, "SELECT a, a + 1 FROM t")
	assert.Empty(t, rows)
}

func TestCharPadding(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, "CREATE TABLE codes (code CHAR(5))")
	exec(t, att, "INSERT INTO codes VALUES (?)", message.VarTextValue("ab"))

	rows := query(t, att, "SELECT code FROM codes")
	require.Len(t, rows, 1)
	f := field(t, rows[0], 0)
	assert.Equal(t, sqltype.Text, f.Type())
	s, err := f.AsString()
	require.NoError(t, err)
	assert.Equal(t, "ab   ", s)
}

func TestVaryingOverflow(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, "CREATE TABLE t (v VARCHAR(3))")
	exec(t, att, "INSERT INTO t VALUES (?)", message.VarTextValue("too long"))

	stmt, err := att.Prepare("SELECT v FROM t")
	require.NoError(t, err)
	cur, err := stmt.OpenCursor(nil, nil)
	require.NoError(t, err)
	defer cur.Close()

	_, err = cur.FetchNext(make([]byte, cur.Descriptor().Length))
	assert.Error(t, err)
}

func TestBlobColumns(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, "CREATE TABLE docs (id INTEGER, body BLOB, notes CLOB)")

	w, err := blob.Create(att)
	require.NoError(t, err)
	payload := make([]byte, blob.MaxSegmentSize+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, w.Put(payload))
	require.NoError(t, w.Close())

	exec(t, att, "INSERT INTO docs VALUES (?, ?, ?)",
		message.Int32Value(1), message.BlobValue(w.ID()), message.VarTextValue("text notes"))

	rows := query(t, att, "SELECT body, notes FROM docs")
	require.Len(t, rows, 1)

	body := field(t, rows[0], 0)
	assert.Equal(t, sqltype.Blob, body.Type())
	bodyID, err := body.AsBlobID()
	require.NoError(t, err)
	r, err := blob.Open(att, bodyID)
	require.NoError(t, err)
	got, err := r.GetAll()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, payload, got)

	notes := field(t, rows[0], 1)
	assert.Equal(t, sqltype.BlobText, notes.SubType())
	notesID, err := notes.AsBlobID()
	require.NoError(t, err)
	r, err = blob.Open(att, notesID)
	require.NoError(t, err)
	s, err := r.GetString()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "text notes", s)
}

func TestLongText(t *testing.T) {
	att := newAttachment(t, 8)
	exec(t, att, "CREATE TABLE posts (id INTEGER, body TEXT)")

	long := strings.Repeat("x", 100)
	exec(t, att, "INSERT INTO posts VALUES (?, ?)", message.Int32Value(1), message.VarTextValue(long))

	rows := query(t, att, "SELECT body FROM posts")
	require.Len(t, rows, 1)
	body := field(t, rows[0], 0)
	assert.Equal(t, sqltype.Blob, body.Type())
	assert.Equal(t, sqltype.BlobText, body.SubType())

	id, err := body.AsBlobID()
	require.NoError(t, err)
	r, err := blob.Open(att, id)
	require.NoError(t, err)
	defer r.Close()
	s, err := r.GetString()
	require.NoError(t, err)
	assert.Equal(t, long, s)
}

func TestStatementCache(t *testing.T) {
	att := newAttachment(t, 1)
	exec(t, att, "CREATE TABLE t (a INTEGER)")

	insert, err := att.Prepare("INSERT INTO t VALUES (?)")
	require.NoError(t, err)
	_, err = att.Prepare("INSERT INTO t VALUES (?)")
	require.NoError(t, err)
	assert.Equal(t, 1, att.CachedStatementCount())

	// Evicts the insert; the statement prepares itself again on use
	_ = query(t, att, "SELECT a FROM t")

	msg, err := message.Build(att, []message.Value{message.Int32Value(7)})
	require.NoError(t, err)
	n, err := insert.Execute(msg.Descriptor, msg.Buffer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPrepareError(t *testing.T) {
	att := newAttachment(t, 8)
	_, err := att.Prepare("SELEC nonsense")
	assert.Error(t, err)
}

func TestSlotForDecl(t *testing.T) {
	tests := []struct {
		decl   string
		typ    sqltype.Code
		sub    int32
		scale  int32
		length uint32
		ok     bool
	}{
		{"INTEGER", sqltype.Int64, 0, 0, 0, true},
		{"smallint", sqltype.Short, 0, 0, 0, true},
		{"NUMERIC(10, 2)", sqltype.Int64, 0, -2, 0, true},
		{"DECIMAL(30,4)", sqltype.Int128, 0, -4, 0, true},
		{"VARCHAR(20)", sqltype.Varying, 0, 0, 20, true},
		{"TEXT", sqltype.Blob, sqltype.BlobText, 0, 0, true},
		{"text(12)", sqltype.Varying, 0, 0, 12, true},
		{"STRING", sqltype.Blob, sqltype.BlobText, 0, 0, true},
		{"CHAR(3)", sqltype.Text, 0, 0, 3, true},
		{"VARBINARY(8)", sqltype.Varying, sqltype.CharsetOctets, 0, 8, true},
		{"BLOB", sqltype.Blob, sqltype.BlobBinary, 0, 0, true},
		{"BLOB SUB_TYPE TEXT", sqltype.Blob, sqltype.BlobText, 0, 0, true},
		{"DOUBLE PRECISION", sqltype.Double, 0, 0, 0, true},
		{"DATETIME", sqltype.Timestamp, 0, 0, 0, true},
		{"TIMESTAMP WITH TIME ZONE", sqltype.TimestampTZ, 0, 0, 0, true},
		{"VARCHAR(99999)", sqltype.Varying, 0, 0, engine.MaxVaryingLength, true},
		{"", 0, 0, 0, 0, false},
		{"GEOMETRY", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			spec, ok := slotForDecl(tt.decl, 64)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.typ, spec.Type)
			assert.Equal(t, tt.sub, spec.SubType)
			assert.Equal(t, tt.scale, spec.Scale)
			assert.Equal(t, tt.length, spec.Length)
		})
	}
}

func TestSlotForValue(t *testing.T) {
	assert.Equal(t, sqltype.Int64, slotForValue(int64(1), 64).Type)
	assert.Equal(t, sqltype.Double, slotForValue(1.5, 64).Type)
	assert.Equal(t, uint32(64), slotForValue("abc", 64).Length)
	assert.Equal(t, uint32(100), slotForValue(string(make([]byte, 100)), 64).Length)
	octets := slotForValue([]byte{1}, 64)
	assert.Equal(t, sqltype.CharsetOctets, octets.SubType)
	assert.Equal(t, sqltype.Varying, slotForValue(nil, 64).Type)
}
