package client

import (
	"errors"
	"testing"

	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/engine/loopback"
	"github.com/maxpert/fbsql/engine/sqlite"
	"github.com/maxpert/fbsql/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopbackConn(t *testing.T) *Conn {
	t.Helper()
	att, err := loopback.Open(blobstore.Options{InMemory: true, NodeID: 2})
	require.NoError(t, err)
	c := New(att)
	t.Cleanup(func() { c.Close() })
	return c
}

func sqliteConn(t *testing.T) *Conn {
	t.Helper()
	store, err := blobstore.Open(blobstore.Options{InMemory: true, NodeID: 3})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	att, err := sqlite.Open(sqlite.Options{Path: ":memory:", StatementCacheSize: 4}, store)
	require.NoError(t, err)
	c := New(att)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestQueryEcho(t *testing.T) {
	c := loopbackConn(t)

	rs, err := c.Query("SELECT ?, ?, ?", int32(7), "fixed", nil)
	require.NoError(t, err)
	defer rs.Close()

	assert.Nil(t, rs.Row())
	_, err = rs.Field(0)
	assert.ErrorIs(t, err, message.ErrLogic)
	assert.False(t, errors.Is(err, engine.ErrEngine))
	assert.Equal(t, 3, rs.ColumnCount())
	assert.Equal(t, []string{"PARAM_1", "PARAM_2", "PARAM_3"}, rs.ColumnNames())
	assert.Equal(t, []string{"PARAM_1", "PARAM_2", "PARAM_3"}, rs.ColumnAliases())
	assert.Equal(t, []string{"INT", "CHAR", "SMALLINT"}, rs.ColumnTypes())

	ok, err := rs.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, rs.Row())

	f, err := rs.Field(0)
	require.NoError(t, err)
	v, err := f.AsInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	f, err = rs.Field(1)
	require.NoError(t, err)
	s, err := f.AsString()
	require.NoError(t, err)
	assert.Equal(t, "fixed", s)

	f, err = rs.Field(2)
	require.NoError(t, err)
	assert.True(t, f.IsNull())

	_, err = rs.Field(5)
	var idx *message.IndexError
	assert.True(t, errors.As(err, &idx))

	ok, err = rs.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rs.Row())
	_, err = rs.Field(0)
	assert.ErrorIs(t, err, message.ErrLogic)
}

func TestEmptyParameters(t *testing.T) {
	c := loopbackConn(t)

	n, err := c.Execute("UPDATE nothing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	rs, err := c.Query("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 0, rs.ColumnCount())
	ok, err := rs.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, rs.Close())
	require.NoError(t, rs.Close())

	_, err = rs.Next()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStatementBindAndClear(t *testing.T) {
	c := loopbackConn(t)
	stmt, err := c.Prepare("SELECT ?")
	require.NoError(t, err)
	defer stmt.Close()
	assert.Equal(t, "SELECT ?", stmt.SQL())

	require.NoError(t, stmt.Bind(int64(1)))
	stmt.BindValue(message.BoolValue(true))
	assert.Equal(t, 2, stmt.Params().Len())

	rs, err := stmt.Query()
	require.NoError(t, err)
	assert.Equal(t, 2, rs.ColumnCount())
	require.NoError(t, rs.Close())

	stmt.Clear()
	assert.True(t, stmt.Params().Empty())
	n, err := stmt.Execute()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Error(t, stmt.Bind(struct{}{}))
}

func TestUnsupportedArgument(t *testing.T) {
	c := loopbackConn(t)
	_, err := c.Execute("SELECT ?", map[string]int{})
	assert.ErrorIs(t, err, message.ErrLogic)
}

func TestBlobRoundTrip(t *testing.T) {
	c := loopbackConn(t)

	w, err := c.CreateBlob()
	require.NoError(t, err)
	require.NoError(t, w.PutString("through the row"))
	require.NoError(t, w.Close())

	// The stream itself binds as its blob id
	rs, err := c.Query("SELECT ?, ?", w, int16(1))
	require.NoError(t, err)
	defer rs.Close()
	ok, err := rs.Next()
	require.NoError(t, err)
	require.True(t, ok)

	r, err := c.OpenBlob(rs, 0)
	require.NoError(t, err)
	s, err := r.GetString()
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "through the row", s)

	_, err = c.OpenBlob(rs, 1)
	assert.Error(t, err)
}

func TestSQLiteSession(t *testing.T) {
	c := sqliteConn(t)

	_, err := c.Execute("CREATE TABLE people (id INTEGER, name VARCHAR(30), score NUMERIC(6,1))")
	require.NoError(t, err)

	insert, err := c.Prepare("INSERT INTO people VALUES (?, ?, ?)")
	require.NoError(t, err)
	defer insert.Close()

	for i, name := range []string{"ada", "grace"} {
		insert.Clear()
		insert.BindValue(message.Int32Value(int32(i + 1)))
		insert.BindValue(message.VarTextValue(name))
		insert.BindValue(message.Float64Value(float64(i) + 0.5))
		n, err := insert.Execute()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	rs, err := c.Query("SELECT name, score FROM people ORDER BY id")
	require.NoError(t, err)
	defer rs.Close()
	assert.Equal(t, []string{"VARCHAR", "BIGINT"}, rs.ColumnTypes())

	var got []string
	for {
		ok, err := rs.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		name, err := rs.Field(0)
		require.NoError(t, err)
		score, err := rs.Field(1)
		require.NoError(t, err)
		n, err := name.AsString()
		require.NoError(t, err)
		s, err := score.AsString()
		require.NoError(t, err)
		got = append(got, n+"="+s)
	}
	assert.Equal(t, []string{"ada=0.5", "grace=1.5"}, got)
}

func TestEngineErrorsAreWrapped(t *testing.T) {
	c := sqliteConn(t)
	_, err := c.Prepare("NOT SQL AT ALL")
	assert.ErrorIs(t, err, engine.ErrEngine)
}

func TestClosedConn(t *testing.T) {
	att, err := loopback.Open(blobstore.Options{InMemory: true})
	require.NoError(t, err)
	c := New(att)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Prepare("SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.CreateBlob()
	assert.ErrorIs(t, err, ErrClosed)
}
