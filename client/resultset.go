package client

import (
	"fmt"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/telemetry"
)

// ResultSet iterates the rows of an open cursor. The output buffer is
// allocated once and refilled by every Next, so a Row is only valid until
// the following call; values extracted from it are copies.
type ResultSet struct {
	cur    engine.Cursor
	desc   *engine.Descriptor
	buf    []byte
	row    *message.Row
	valid  bool
	closed bool
	owner  *Statement // closed with the result set
}

func newResultSet(cur engine.Cursor) (*ResultSet, error) {
	desc := cur.Descriptor()
	if desc == nil {
		desc = &engine.Descriptor{}
	}
	buf := make([]byte, desc.Length)
	row, err := message.NewRow(desc, buf)
	if err != nil {
		cur.Close()
		return nil, engine.Wrap("open cursor", err)
	}
	return &ResultSet{cur: cur, desc: desc, buf: buf, row: row}, nil
}

// Next fetches the next row. It returns false at the end of the rows.
func (rs *ResultSet) Next() (bool, error) {
	if rs.closed {
		return false, ErrClosed
	}
	ok, err := rs.cur.FetchNext(rs.buf)
	if err != nil {
		rs.valid = false
		telemetry.EngineErrorsTotal.With("fetch").Inc()
		return false, engine.Wrap("fetch", err)
	}
	rs.valid = ok
	if ok {
		telemetry.RowsFetchedTotal.Inc()
	}
	return ok, nil
}

// Row returns the current row, or nil before the first Next and after the last
func (rs *ResultSet) Row() *message.Row {
	if !rs.valid {
		return nil
	}
	return rs.row
}

// Field returns column i of the current row. Asking before the first Next
// or after the last row is a logic error.
func (rs *ResultSet) Field(i int) (message.Field, error) {
	if rs.closed {
		return message.Field{}, ErrClosed
	}
	if !rs.valid {
		return message.Field{}, fmt.Errorf("%w: no current row", message.ErrLogic)
	}
	return rs.row.Field(i)
}

// Descriptor returns the layout of the output buffer
func (rs *ResultSet) Descriptor() *engine.Descriptor {
	return rs.desc
}

func (rs *ResultSet) ColumnCount() int {
	return rs.desc.Count()
}

func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.desc.Columns))
	for i, c := range rs.desc.Columns {
		names[i] = c.Name
	}
	return names
}

func (rs *ResultSet) ColumnAliases() []string {
	aliases := make([]string, len(rs.desc.Columns))
	for i, c := range rs.desc.Columns {
		aliases[i] = c.Alias
	}
	return aliases
}

// ColumnTypes returns the display name of every column type
func (rs *ResultSet) ColumnTypes() []string {
	types := make([]string, len(rs.desc.Columns))
	for i, c := range rs.desc.Columns {
		types[i] = sqltype.DisplayName(c.Type)
	}
	return types
}

// Close closes the cursor, and the statement when the result set came from
// Conn.Query
func (rs *ResultSet) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	rs.valid = false

	err := engine.Wrap("close cursor", rs.cur.Close())
	if rs.owner != nil {
		if cerr := rs.owner.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
