// Package sqlite is an engine backed by a SQLite database file.
//
// Input messages are decoded into driver arguments and every result row is
// encoded into an output message whose layout is derived from the declared
// column types. BLOB and CLOB values travel through a blobstore.Store: they
// are stored as blobs on the way out and read back when bound as parameters.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/maxpert/fbsql/blobstore"
	"github.com/maxpert/fbsql/cfg"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/rs/zerolog/log"
)

// Options configures an Attachment
type Options struct {
	Path                 string
	BusyTimeoutMS        int
	StatementCacheSize   int
	DefaultVarcharLength int
}

// OptionsFromConfig reads the engine section of cfg.Config
func OptionsFromConfig() Options {
	return Options{
		Path:                 cfg.GetDatabasePath(),
		BusyTimeoutMS:        cfg.Config.Engine.BusyTimeoutMS,
		StatementCacheSize:   cfg.Config.Engine.StatementCacheSize,
		DefaultVarcharLength: cfg.Config.Engine.DefaultVarcharLength,
	}
}

// Attachment implements engine.Attachment on one SQLite connection. It is not
// safe for concurrent use.
type Attachment struct {
	*blobstore.Store
	db         *sql.DB
	varcharLen uint32

	mu    sync.Mutex
	cache *lru.Cache[uint64, *cachedStatement]
}

type cachedStatement struct {
	query string
	stmt  *sql.Stmt
}

// Open opens the database at opts.Path. Blobs are kept in store, which the
// caller keeps ownership of.
func Open(opts Options, store *blobstore.Store) (*Attachment, error) {
	if store == nil {
		return nil, fmt.Errorf("sqlite engine requires a blob store")
	}
	if opts.StatementCacheSize < 1 {
		opts.StatementCacheSize = 1
	}
	if opts.DefaultVarcharLength < 1 || opts.DefaultVarcharLength > engine.MaxVaryingLength {
		opts.DefaultVarcharLength = 255
	}

	dsn := opts.Path
	if !strings.Contains(dsn, ":memory:") {
		if strings.Contains(dsn, "?") {
			dsn += fmt.Sprintf("&_journal_mode=WAL&_busy_timeout=%d", opts.BusyTimeoutMS)
		} else {
			dsn += fmt.Sprintf("?_journal_mode=WAL&_busy_timeout=%d", opts.BusyTimeoutMS)
		}
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: an in-memory database lives and dies with it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cache, err := lru.NewWithEvict[uint64, *cachedStatement](opts.StatementCacheSize,
		func(_ uint64, cs *cachedStatement) {
			if err := cs.stmt.Close(); err != nil {
				log.Warn().Err(err).Str("sql", cs.query).Msg("Failed to close evicted statement")
			}
		})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create statement cache: %w", err)
	}

	log.Info().
		Str("path", opts.Path).
		Int("statement_cache_size", opts.StatementCacheSize).
		Msg("SQLite engine attached")

	return &Attachment{
		Store:      store,
		db:         db,
		varcharLen: uint32(opts.DefaultVarcharLength),
		cache:      cache,
	}, nil
}

// AllocateDescriptor lays slots out with engine.Allocate
func (a *Attachment) AllocateDescriptor(slots []engine.SlotSpec) (*engine.Descriptor, error) {
	return engine.Allocate(slots)
}

// Prepare compiles query, reusing a cached statement when the same text was
// prepared before
func (a *Attachment) Prepare(query string) (engine.Statement, error) {
	if _, err := a.prepared(query); err != nil {
		return nil, err
	}
	return &statement{att: a, query: query}, nil
}

// prepared returns the cached statement for query, preparing it on a miss.
// Statements evicted from the cache are prepared again on their next use.
func (a *Attachment) prepared(query string) (*sql.Stmt, error) {
	key := xxhash.Sum64String(query)

	a.mu.Lock()
	defer a.mu.Unlock()

	if cs, ok := a.cache.Get(key); ok && cs.query == query {
		telemetry.StatementCacheTotal.With("hit").Inc()
		return cs.stmt, nil
	}
	telemetry.StatementCacheTotal.With("miss").Inc()

	start := time.Now()
	stmt, err := a.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("sql", query).
		Dur("duration", time.Since(start)).
		Msg("Prepared statement")

	a.cache.Add(key, &cachedStatement{query: query, stmt: stmt})
	return stmt, nil
}

// CachedStatementCount returns the number of prepared statements in the cache
func (a *Attachment) CachedStatementCount() int {
	return a.cache.Len()
}

// Close closes cached statements and the database. The blob store stays open.
func (a *Attachment) Close() error {
	a.mu.Lock()
	a.cache.Purge()
	a.mu.Unlock()
	return a.db.Close()
}
