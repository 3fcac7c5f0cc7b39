package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/client"
	"github.com/maxpert/fbsql/engine/sqlite"
)

// Pool holds one SQLite attachment per worker over a shared blob store.
// A connection must only be used by one goroutine at a time.
type Pool struct {
	store   *blobstore.Store
	conns   []*client.Conn
	counter uint64
}

// NewPool opens size attachments on dataDir/database.
func NewPool(dataDir, database string, size, compression int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := blobstore.Open(blobstore.Options{
		Path:             filepath.Join(dataDir, "blobs"),
		CompressionLevel: compression,
		CacheSizeMB:      32,
		NodeID:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	p := &Pool{store: store, conns: make([]*client.Conn, size)}
	for i := range p.conns {
		att, err := sqlite.Open(sqlite.Options{
			Path:                 filepath.Join(dataDir, database),
			BusyTimeoutMS:        5000,
			StatementCacheSize:   32,
			DefaultVarcharLength: 255,
		}, store)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to open attachment %d: %w", i, err)
		}
		p.conns[i] = client.New(att)
	}

	return p, nil
}

// Get returns a connection using round-robin selection.
func (p *Pool) Get() *client.Conn {
	idx := atomic.AddUint64(&p.counter, 1) % uint64(len(p.conns))
	return p.conns[idx]
}

// GetByIndex returns a specific connection by index.
func (p *Pool) GetByIndex(idx int) *client.Conn {
	return p.conns[idx%len(p.conns)]
}

// Size returns the number of connections in the pool.
func (p *Pool) Size() int {
	return len(p.conns)
}

// Store returns the shared blob store.
func (p *Pool) Store() *blobstore.Store {
	return p.store
}

// Close closes all connections and then the blob store.
func (p *Pool) Close() error {
	var lastErr error
	for _, c := range p.conns {
		if c != nil {
			if err := c.Close(); err != nil {
				lastErr = err
			}
		}
	}
	if err := p.store.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// CreateTable creates the benchmark table.
func (p *Pool) CreateTable(table string, dropExisting bool) error {
	if !validTableName.MatchString(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	conn := p.GetByIndex(0)

	if dropExisting {
		if _, err := conn.Execute(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(64) PRIMARY KEY,
		field0 VARCHAR(100),
		payload BLOB,
		checksum BIGINT,
		updated_at TIMESTAMP
	)`, table)

	if _, err := conn.Execute(createSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (p *Pool) GetRowCount(table string) (int64, error) {
	if !validTableName.MatchString(table) {
		return 0, fmt.Errorf("invalid table name: %s", table)
	}

	rs, err := p.GetByIndex(0).Query(fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err != nil {
		return 0, err
	}
	defer rs.Close()

	ok, err := rs.Next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	f, err := rs.Field(0)
	if err != nil {
		return 0, err
	}
	return f.AsInt64()
}
