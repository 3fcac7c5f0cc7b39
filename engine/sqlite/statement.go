package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/message"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

type statement struct {
	att   *Attachment
	query string
}

// Execute runs the statement and returns the number of rows affected
func (s *statement) Execute(in *engine.Descriptor, buf []byte) (int64, error) {
	start := time.Now()
	n, err := s.execute(in, buf)
	observe("execute", start, err)
	return n, err
}

func (s *statement) execute(in *engine.Descriptor, buf []byte) (int64, error) {
	args, err := s.att.driverArgs(in, buf)
	if err != nil {
		return 0, err
	}
	stmt, err := s.att.prepared(s.query)
	if err != nil {
		return 0, err
	}
	res, err := stmt.Exec(args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	telemetry.RowsAffected.Observe(float64(n))
	return n, nil
}

// OpenCursor runs the statement as a query. The output descriptor comes from
// the declared column types; columns without one take their type from the
// first row.
func (s *statement) OpenCursor(in *engine.Descriptor, buf []byte) (engine.Cursor, error) {
	start := time.Now()
	c, err := s.openCursor(in, buf)
	observe("query", start, err)
	return c, err
}

func (s *statement) openCursor(in *engine.Descriptor, buf []byte) (engine.Cursor, error) {
	args, err := s.att.driverArgs(in, buf)
	if err != nil {
		return nil, err
	}
	stmt, err := s.att.prepared(s.query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}

	c := &cursor{att: s.att, rows: rows}
	if err := c.describe(); err != nil {
		rows.Close()
		return nil, err
	}
	return c, nil
}

// Close is a no-op: the prepared statement stays in the attachment cache
func (s *statement) Close() error {
	return nil
}

func observe(op string, start time.Time, err error) {
	telemetry.StatementDurationSeconds.With(op).Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.StatementsTotal.With(op, "failed").Inc()
		return
	}
	telemetry.StatementsTotal.With(op, "success").Inc()
}

type cursor struct {
	att  *Attachment
	rows *sql.Rows
	desc *engine.Descriptor

	peeked []interface{} // first row, read ahead to type undeclared columns
	done   bool
}

func (c *cursor) describe() error {
	types, err := c.rows.ColumnTypes()
	if err != nil {
		return err
	}

	specs := make([]engine.SlotSpec, len(types))
	var undeclared []int
	for i, ct := range types {
		spec, ok := slotForDecl(ct.DatabaseTypeName(), c.att.varcharLen)
		if !ok {
			undeclared = append(undeclared, i)
		}
		spec.Type = spec.Type.AsNullable()
		spec.Name = ct.Name()
		specs[i] = spec
	}

	if len(undeclared) > 0 {
		row, err := c.scan(len(types))
		if err != nil {
			return err
		}
		c.peeked = row
		for _, i := range undeclared {
			var v interface{}
			if row != nil {
				v = row[i]
			}
			spec := slotForValue(v, c.att.varcharLen)
			spec.Type = spec.Type.AsNullable()
			spec.Name = specs[i].Name
			specs[i] = spec
		}
	}

	desc, err := engine.Allocate(specs)
	if err != nil {
		return err
	}
	c.desc = desc
	return nil
}

// scan reads the next row, or returns nil at the end
func (c *cursor) scan(n int) ([]interface{}, error) {
	if !c.rows.Next() {
		c.done = true
		return nil, c.rows.Err()
	}
	row := make([]interface{}, n)
	ptrs := make([]interface{}, n)
	for i := range row {
		ptrs[i] = &row[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *cursor) Descriptor() *engine.Descriptor {
	return c.desc
}

// FetchNext encodes the next row into out
func (c *cursor) FetchNext(out []byte) (bool, error) {
	row := c.peeked
	c.peeked = nil
	if row == nil {
		if c.done {
			return false, nil
		}
		var err error
		if row, err = c.scan(len(c.desc.Columns)); err != nil {
			return false, err
		}
		if row == nil {
			return false, nil
		}
	}

	w, err := message.NewRowWriter(c.desc, out)
	if err != nil {
		return false, err
	}
	for i, col := range c.desc.Columns {
		v, err := c.att.columnValue(col, row[i])
		if err != nil {
			return false, fmt.Errorf("column %d (%s): %w", i, col.Name, err)
		}
		if err := w.Set(i, v); err != nil {
			return false, fmt.Errorf("column %d (%s): %w", i, col.Name, err)
		}
	}
	return true, nil
}

func (c *cursor) Close() error {
	if err := c.rows.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close rows")
		return err
	}
	return nil
}
