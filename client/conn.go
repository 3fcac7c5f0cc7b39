// Package client wraps an engine attachment with prepared statements, result
// sets and blob streams that speak message.Value.
//
// Nothing here is safe for concurrent use; one Conn is one session.
package client

import (
	"errors"
	"fmt"

	"github.com/maxpert/fbsql/blob"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/sqltype"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by operations on a closed connection or result set
var ErrClosed = errors.New("client: closed")

// Conn is a session on one engine attachment
type Conn struct {
	att    engine.Attachment
	closed bool
}

// New wraps att. Closing the Conn closes att.
func New(att engine.Attachment) *Conn {
	return &Conn{att: att}
}

// Attachment returns the underlying attachment
func (c *Conn) Attachment() engine.Attachment {
	return c.att
}

// Prepare prepares sql for repeated execution
func (c *Conn) Prepare(sql string) (*Statement, error) {
	if c.closed {
		return nil, ErrClosed
	}
	stmt, err := c.att.Prepare(sql)
	if err != nil {
		telemetry.EngineErrorsTotal.With("prepare").Inc()
		return nil, engine.Wrap("prepare", err)
	}
	return &Statement{conn: c, stmt: stmt, sql: sql}, nil
}

// Execute runs sql once with args converted by message.ValueOf and returns
// the number of rows affected
func (c *Conn) Execute(sql string, args ...any) (int64, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	if err := stmt.Bind(args...); err != nil {
		return 0, err
	}
	return stmt.Execute()
}

// Query runs sql once with args and returns its rows. Closing the result set
// closes the statement as well.
func (c *Conn) Query(sql string, args ...any) (*ResultSet, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return nil, err
	}
	if err := stmt.Bind(args...); err != nil {
		stmt.Close()
		return nil, err
	}
	rs, err := stmt.Query()
	if err != nil {
		stmt.Close()
		return nil, err
	}
	rs.owner = stmt
	return rs, nil
}

// CreateBlob starts a new blob for writing
func (c *Conn) CreateBlob() (*blob.Stream, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return blob.Create(c.att)
}

// OpenBlob opens the blob referenced by a BLOB column of the current row
func (c *Conn) OpenBlob(rs *ResultSet, column int) (*blob.Stream, error) {
	if c.closed {
		return nil, ErrClosed
	}
	f, err := rs.Field(column)
	if err != nil {
		return nil, err
	}
	if f.Type() != sqltype.Blob {
		return nil, fmt.Errorf("column %d is %s, not BLOB", column, f.TypeName())
	}
	if f.IsNull() {
		return nil, fmt.Errorf("column %d is null", column)
	}
	id, err := f.AsBlobID()
	if err != nil {
		return nil, err
	}
	return blob.Open(c.att, id)
}

// Close closes the attachment
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.att.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close attachment")
		return engine.Wrap("detach", err)
	}
	return nil
}
