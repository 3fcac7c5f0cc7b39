// Package loopback is an in-process engine that answers every statement with
// its own parameters: a cursor yields one row laid out exactly like the input
// message. Blobs are kept in a blobstore.Store.
package loopback

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/engine"
	"github.com/rs/zerolog/log"
)

// Attachment implements engine.Attachment
type Attachment struct {
	*blobstore.Store
	ownsStore  bool
	statements atomic.Int64
	closed     atomic.Bool
}

// Open attaches to a loopback engine backed by a new blob store
func Open(opts blobstore.Options) (*Attachment, error) {
	store, err := blobstore.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Attachment{Store: store, ownsStore: true}, nil
}

// New attaches to a loopback engine over an existing blob store, which the
// caller keeps ownership of
func New(store *blobstore.Store) *Attachment {
	return &Attachment{Store: store}
}

// AllocateDescriptor lays slots out with engine.Allocate
func (a *Attachment) AllocateDescriptor(slots []engine.SlotSpec) (*engine.Descriptor, error) {
	return engine.Allocate(slots)
}

// Prepare accepts any statement text
func (a *Attachment) Prepare(sql string) (engine.Statement, error) {
	if a.closed.Load() {
		return nil, fmt.Errorf("attachment is closed")
	}
	a.statements.Add(1)
	log.Debug().Str("sql", sql).Msg("Prepared loopback statement")
	return &statement{att: a, sql: sql}, nil
}

// CachedStatementCount returns the number of prepared statements not yet closed
func (a *Attachment) CachedStatementCount() int {
	return int(a.statements.Load())
}

// Close detaches and closes the blob store when the attachment opened it
func (a *Attachment) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	if a.ownsStore {
		return a.Store.Close()
	}
	return nil
}

type statement struct {
	att    *Attachment
	sql    string
	closed sync.Once
}

// Execute reports one affected row per message received
func (s *statement) Execute(in *engine.Descriptor, buf []byte) (int64, error) {
	if err := checkInput(in, buf); err != nil {
		return 0, err
	}
	if in == nil {
		return 0, nil
	}
	return 1, nil
}

// OpenCursor echoes the input message as a single row. Statements without
// parameters produce no rows.
func (s *statement) OpenCursor(in *engine.Descriptor, buf []byte) (engine.Cursor, error) {
	if err := checkInput(in, buf); err != nil {
		return nil, err
	}
	if in == nil {
		return &cursor{desc: &engine.Descriptor{}}, nil
	}

	desc := &engine.Descriptor{Columns: make([]engine.Column, len(in.Columns)), Length: in.Length}
	for i, c := range in.Columns {
		if c.Name == "" {
			c.Name = fmt.Sprintf("PARAM_%d", i+1)
		}
		if c.Alias == "" {
			c.Alias = c.Name
		}
		c.Relation = "LOOPBACK"
		desc.Columns[i] = c
	}
	row := append([]byte{}, buf[:in.Length]...)
	return &cursor{desc: desc, row: row}, nil
}

func (s *statement) Close() error {
	s.closed.Do(func() { s.att.statements.Add(-1) })
	return nil
}

func checkInput(in *engine.Descriptor, buf []byte) error {
	if in == nil {
		return nil
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if uint32(len(buf)) < in.Length {
		return fmt.Errorf("input buffer of %d bytes is shorter than message length %d", len(buf), in.Length)
	}
	return nil
}

type cursor struct {
	desc *engine.Descriptor
	row  []byte
	done bool
}

func (c *cursor) Descriptor() *engine.Descriptor {
	return c.desc
}

func (c *cursor) FetchNext(out []byte) (bool, error) {
	if c.done || c.row == nil {
		return false, nil
	}
	if len(out) < len(c.row) {
		return false, fmt.Errorf("output buffer of %d bytes is shorter than message length %d", len(out), len(c.row))
	}
	copy(out, c.row)
	c.done = true
	return true, nil
}

func (c *cursor) Close() error {
	c.row = nil
	return nil
}
