package client

import (
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/telemetry"
)

// Statement is a prepared statement with its own parameter list. Bound
// parameters stay until Clear, so a statement can run repeatedly with the
// same or extended arguments.
type Statement struct {
	conn   *Conn
	stmt   engine.Statement
	sql    string
	params message.Params
	closed bool
}

// SQL returns the statement text
func (s *Statement) SQL() string {
	return s.sql
}

// Bind appends args converted by message.ValueOf
func (s *Statement) Bind(args ...any) error {
	for _, a := range args {
		if err := s.params.AddAny(a); err != nil {
			return err
		}
	}
	return nil
}

// BindValue appends v
func (s *Statement) BindValue(v message.Value) *Statement {
	s.params.Add(v)
	return s
}

// Clear drops the bound parameters
func (s *Statement) Clear() {
	s.params.Clear()
}

// Params returns the bound parameters
func (s *Statement) Params() *message.Params {
	return &s.params
}

// Execute runs the statement with the bound parameters
func (s *Statement) Execute() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	msg, err := s.params.Build(s.conn.att)
	if err != nil {
		return 0, err
	}

	var n int64
	if msg == nil {
		n, err = s.stmt.Execute(nil, nil)
	} else {
		n, err = s.stmt.Execute(msg.Descriptor, msg.Buffer)
	}
	if err != nil {
		telemetry.EngineErrorsTotal.With("execute").Inc()
		return 0, engine.Wrap("execute", err)
	}
	return n, nil
}

// Query opens a cursor with the bound parameters
func (s *Statement) Query() (*ResultSet, error) {
	if s.closed {
		return nil, ErrClosed
	}
	msg, err := s.params.Build(s.conn.att)
	if err != nil {
		return nil, err
	}

	var cur engine.Cursor
	if msg == nil {
		cur, err = s.stmt.OpenCursor(nil, nil)
	} else {
		cur, err = s.stmt.OpenCursor(msg.Descriptor, msg.Buffer)
	}
	if err != nil {
		telemetry.EngineErrorsTotal.With("open_cursor").Inc()
		return nil, engine.Wrap("open cursor", err)
	}
	return newResultSet(cur)
}

// Close releases the statement
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return engine.Wrap("close statement", s.stmt.Close())
}
