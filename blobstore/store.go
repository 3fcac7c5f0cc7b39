// Package blobstore keeps segmented blobs in pebble.
//
// A blob is stored as one key per segment plus a metadata record written when
// the blob is closed. Blobs that were never closed have no metadata and
// cannot be opened.
package blobstore

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/maxpert/fbsql/cfg"
	"github.com/maxpert/fbsql/encoding"
	"github.com/maxpert/fbsql/engine"
	"github.com/maxpert/fbsql/id"
	"github.com/maxpert/fbsql/telemetry"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

// Key layout, sorted so that every key of a blob shares its prefix
const (
	prefixBlob = "/blob/" // /blob/{hi:016x}{lo:016x}/
	suffixMeta = "meta"   // /blob/{id}/meta
	suffixSeg  = "seg/"   // /blob/{id}/seg/{n:08x}
)

var (
	// ErrNotFound is returned when opening a blob that does not exist or was
	// never closed.
	ErrNotFound = errors.New("blob not found")
	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("blob store is closed")
)

// Options configures a Store
type Options struct {
	Path             string
	InMemory         bool
	CompressionLevel int // 0=off, 1-4 zstd fastest..best
	CacheSizeMB      int
	NodeID           uint64
}

// OptionsFromConfig reads the blob_store section of cfg.Config
func OptionsFromConfig() Options {
	return Options{
		Path:             cfg.GetBlobStorePath(),
		InMemory:         cfg.Config.BlobStore.InMemory,
		CompressionLevel: cfg.Config.BlobStore.CompressionLevel,
		CacheSizeMB:      cfg.Config.BlobStore.CacheSizeMB,
		NodeID:           cfg.Config.NodeID,
	}
}

// blobMeta is the record stored under /blob/{id}/meta
type blobMeta struct {
	Segments    int64 `msgpack:"segments"`
	MaxSegment  int64 `msgpack:"max_segment"`
	TotalLength int64 `msgpack:"total_length"`
	Type        int64 `msgpack:"type"`
}

// Store implements engine.BlobStore on pebble. Safe for concurrent use;
// individual handles are not.
type Store struct {
	db      *pebble.DB
	ids     *id.ClockGenerator
	codec   *segmentCodec
	handles *xsync.MapOf[uint64, *handle]
	seq     atomic.Uint64
	closed  atomic.Bool
}

// pebbleLogger wraps zerolog for Pebble
type pebbleLogger struct{}

func (l *pebbleLogger) Infof(format string, args ...interface{}) {
	log.Debug().Msgf("[pebble] "+format, args...)
}

func (l *pebbleLogger) Errorf(format string, args ...interface{}) {
	log.Error().Msgf("[pebble] "+format, args...)
}

func (l *pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.Fatal().Msgf("[pebble] "+format, args...)
}

// Open opens or creates a store
func Open(opts Options) (*Store, error) {
	cacheMB := opts.CacheSizeMB
	if cacheMB <= 0 {
		cacheMB = 8
	}
	cache := pebble.NewCache(int64(cacheMB) << 20)
	defer cache.Unref() // DB will hold reference

	pebbleOpts := &pebble.Options{
		Cache:  cache,
		Logger: &pebbleLogger{},
	}

	path := opts.Path
	if opts.InMemory {
		pebbleOpts.FS = vfs.NewMem()
		if path == "" {
			path = "blobs"
		}
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db: %w", err)
	}

	s := &Store{
		db:      db,
		ids:     id.NewClockGenerator(opts.NodeID),
		codec:   newSegmentCodec(opts.CompressionLevel),
		handles: xsync.NewMapOf[uint64, *handle](),
	}

	if err := s.resumeIDs(opts.NodeID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to scan existing blobs: %w", err)
	}

	log.Info().
		Str("path", path).
		Bool("in_memory", opts.InMemory).
		Int("compression_level", opts.CompressionLevel).
		Msg("Blob store opened")

	return s, nil
}

// resumeIDs moves the id generator past the largest id this node stored
func (s *Store) resumeIDs(nodeID uint64) error {
	prefix := []byte(fmt.Sprintf("%s%016x", prefixBlob, nodeID))
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	if !iter.Last() {
		return nil
	}
	blobID, err := parseBlobKey(iter.Key())
	if err != nil {
		return err
	}
	s.ids.Observe(blobID)
	return nil
}

// CreateBlob starts a new blob for writing
func (s *Store) CreateBlob() (engine.BlobHandle, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	h := &handle{store: s, id: s.ids.NextID(), write: true}
	h.meta.Type = engine.BlobSegmented
	s.register(h)
	telemetry.BlobsCreatedTotal.Inc()
	return h, nil
}

// OpenBlob opens a closed blob for reading
func (s *Store) OpenBlob(blobID engine.BlobID) (engine.BlobHandle, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	meta, err := s.loadMeta(blobID)
	if err != nil {
		return nil, err
	}
	h := &handle{store: s, id: blobID, meta: meta}
	s.register(h)
	return h, nil
}

// DeleteBlob removes a blob and all of its segments
func (s *Store) DeleteBlob(blobID engine.BlobID) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	prefix := blobPrefix(blobID)
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange(prefix, prefixUpperBound(prefix), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.NoSync)
}

// Stat returns the metadata of a closed blob without opening it
func (s *Store) Stat(blobID engine.BlobID) (segments, totalLength int64, err error) {
	meta, err := s.loadMeta(blobID)
	if err != nil {
		return 0, 0, err
	}
	return meta.Segments, meta.TotalLength, nil
}

// OpenBlobCount returns the number of open handles. Used by the metrics collector.
func (s *Store) OpenBlobCount() int {
	return s.handles.Size()
}

// Close closes the store. Handles still open are dropped without being
// committed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if n := s.handles.Size(); n > 0 {
		log.Warn().Int("open_blobs", n).Msg("Closing blob store with open blobs")
	}
	s.handles.Clear()
	s.codec.close()
	return s.db.Close()
}

func (s *Store) register(h *handle) {
	h.seq = s.seq.Add(1)
	s.handles.Store(h.seq, h)
}

func (s *Store) release(h *handle) {
	s.handles.Delete(h.seq)
}

func (s *Store) loadMeta(blobID engine.BlobID) (blobMeta, error) {
	var meta blobMeta
	val, closer, err := s.db.Get(metaKey(blobID))
	if err == pebble.ErrNotFound {
		return meta, fmt.Errorf("%w: %s", ErrNotFound, blobID)
	}
	if err != nil {
		return meta, err
	}
	defer closer.Close()

	if err := encoding.Unmarshal(val, &meta); err != nil {
		return meta, fmt.Errorf("corrupt metadata for blob %s: %w", blobID, err)
	}
	return meta, nil
}

// readSegment returns the decoded payload of segment n
func (s *Store) readSegment(blobID engine.BlobID, n int64) ([]byte, error) {
	val, closer, err := s.db.Get(segmentKey(blobID, n))
	if err == pebble.ErrNotFound {
		return nil, fmt.Errorf("blob %s: segment %d missing", blobID, n)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return s.codec.decode(val)
}

func blobPrefix(blobID engine.BlobID) []byte {
	return []byte(fmt.Sprintf("%s%016x%016x/", prefixBlob, blobID.Hi, blobID.Lo))
}

func metaKey(blobID engine.BlobID) []byte {
	return append(blobPrefix(blobID), suffixMeta...)
}

func segmentKey(blobID engine.BlobID, n int64) []byte {
	return append(blobPrefix(blobID), fmt.Sprintf("%s%08x", suffixSeg, n)...)
}

// parseBlobKey extracts the id from any key under /blob/
func parseBlobKey(key []byte) (engine.BlobID, error) {
	rest, ok := bytes.CutPrefix(key, []byte(prefixBlob))
	if !ok || len(rest) < 32 {
		return engine.BlobID{}, fmt.Errorf("malformed blob key %q", key)
	}
	raw := make([]byte, 16)
	if _, err := hex.Decode(raw, rest[:32]); err != nil {
		return engine.BlobID{}, fmt.Errorf("malformed blob key %q: %w", key, err)
	}
	var blobID engine.BlobID
	for i := 0; i < 8; i++ {
		blobID.Hi = blobID.Hi<<8 | uint64(raw[i])
		blobID.Lo = blobID.Lo<<8 | uint64(raw[8+i])
	}
	return blobID, nil
}

// prefixUpperBound returns prefix + 0xFF... for range iteration
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix)+8)
	copy(upper, prefix)
	for i := len(prefix); i < len(upper); i++ {
		upper[i] = 0xFF
	}
	return upper
}
