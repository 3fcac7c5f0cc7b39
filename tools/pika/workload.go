package main

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/maxpert/fbsql/client"
	"github.com/maxpert/fbsql/engine"
)

type OpType int

const (
	OpRead OpType = iota
	OpUpdate
	OpInsert
	OpDelete
	OpUpsert
)

func (o OpType) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpUpdate:
		return "UPDATE"
	case OpInsert:
		return "INSERT"
	case OpDelete:
		return "DELETE"
	case OpUpsert:
		return "UPSERT"
	default:
		return "UNKNOWN"
	}
}

// ErrChecksumMismatch is returned when a payload read back does not hash to
// the checksum stored next to it.
var ErrChecksumMismatch = errors.New("payload checksum mismatch")

// KeyGenerator generates sequential keys for uniform distribution.
// Thread-safe: uses atomic operations for counter/maxKey, caller provides rng.
type KeyGenerator struct {
	prefix  string
	counter uint64
	maxKey  uint64 // Max key for reads/updates (existing rows)
}

// NewKeyGenerator creates a key generator.
func NewKeyGenerator(prefix string, existingRows int64) *KeyGenerator {
	return &KeyGenerator{
		prefix: prefix,
		maxKey: uint64(existingRows),
	}
}

// Key formats the n-th key.
func (g *KeyGenerator) Key(n uint64) string {
	return fmt.Sprintf("%s_%012d", g.prefix, n)
}

// NextInsertKey generates a key past every existing row.
func (g *KeyGenerator) NextInsertKey() string {
	max := atomic.LoadUint64(&g.maxKey)
	n := atomic.AddUint64(&g.counter, 1)
	return g.Key(max + n)
}

// RandomExistingKey returns a random key from existing rows.
// rng must be provided by caller (each worker has its own rng).
func (g *KeyGenerator) RandomExistingKey(rng *rand.Rand) string {
	max := atomic.LoadUint64(&g.maxKey)
	if max == 0 {
		return g.NextInsertKey()
	}
	return g.Key(uint64(rng.Int63n(int64(max))) + 1)
}

// UpdateMaxKey updates the max key after inserts.
func (g *KeyGenerator) UpdateMaxKey(delta int64) {
	atomic.AddUint64(&g.maxKey, uint64(delta))
}

// Operation represents a single statement of the workload.
type Operation struct {
	Type    OpType
	Key     string
	Value   string
	Payload []byte
}

// OpSelector selects operations based on workload distribution.
type OpSelector struct {
	dist       WorkloadDistribution
	thresholds [5]int // Cumulative thresholds for each op type
	rng        *rand.Rand
}

// NewOpSelector creates an operation selector.
func NewOpSelector(dist WorkloadDistribution, seed int64) *OpSelector {
	s := &OpSelector{
		dist: dist,
		rng:  rand.New(rand.NewSource(seed)),
	}

	s.thresholds[0] = dist.Read
	s.thresholds[1] = s.thresholds[0] + dist.Update
	s.thresholds[2] = s.thresholds[1] + dist.Insert
	s.thresholds[3] = s.thresholds[2] + dist.Delete
	s.thresholds[4] = s.thresholds[3] + dist.Upsert

	return s
}

// Select returns a random operation type based on distribution.
func (s *OpSelector) Select() OpType {
	r := s.rng.Intn(100)

	if r < s.thresholds[0] {
		return OpRead
	}
	if r < s.thresholds[1] {
		return OpUpdate
	}
	if r < s.thresholds[2] {
		return OpInsert
	}
	if r < s.thresholds[3] {
		return OpDelete
	}
	return OpUpsert
}

// generateFieldValue generates a random value for a field.
func generateFieldValue(rng *rand.Rand, length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[rng.Intn(len(chars))]
	}
	return string(b)
}

// generatePayload generates random payload bytes.
func generatePayload(rng *rand.Rand, size int) []byte {
	b := make([]byte, size)
	rng.Read(b)
	return b
}

// BlobDeleter drops blobs that were only staged for a statement.
type BlobDeleter interface {
	DeleteBlob(id engine.BlobID) error
}

// ExecuteOp executes a single operation on conn.
func ExecuteOp(conn *client.Conn, blobs BlobDeleter, table string, op Operation) error {
	switch op.Type {
	case OpRead:
		return executeRead(conn, blobs, table, op.Key)
	case OpUpdate:
		return executeUpdate(conn, table, op.Key, op.Value)
	case OpInsert:
		return executeWrite(conn, blobs, "INSERT", table, op)
	case OpDelete:
		return executeDelete(conn, table, op.Key)
	case OpUpsert:
		return executeWrite(conn, blobs, "INSERT OR REPLACE", table, op)
	default:
		return fmt.Errorf("unknown operation type: %v", op.Type)
	}
}

func executeRead(conn *client.Conn, blobs BlobDeleter, table, key string) error {
	found, payload, checksum, err := readPayload(conn, blobs, table, key)
	if err != nil || !found {
		// Not finding a row is not an error for benchmark purposes
		return err
	}
	if int64(xxhash.Sum64(payload)) != checksum {
		return fmt.Errorf("%w: key %s", ErrChecksumMismatch, key)
	}
	return nil
}

// readPayload fetches the payload blob and stored checksum of key. Each read
// materializes the column into a fresh blob, which is dropped once drained.
func readPayload(conn *client.Conn, blobs BlobDeleter, table, key string) (bool, []byte, int64, error) {
	rs, err := conn.Query(fmt.Sprintf("SELECT payload, checksum FROM %s WHERE id = ?", table), key)
	if err != nil {
		return false, nil, 0, err
	}
	defer rs.Close()

	ok, err := rs.Next()
	if err != nil || !ok {
		return false, nil, 0, err
	}

	col, err := rs.Field(0)
	if err != nil || col.IsNull() {
		return false, nil, 0, err
	}

	sum, err := rs.Field(1)
	if err != nil {
		return false, nil, 0, err
	}
	checksum, err := sum.AsInt64()
	if err != nil {
		return false, nil, 0, err
	}

	stream, err := conn.OpenBlob(rs, 0)
	if err != nil {
		return false, nil, 0, err
	}
	payload, err := stream.GetAll()
	stream.Close()
	if err != nil {
		return false, nil, 0, err
	}
	if err := blobs.DeleteBlob(stream.ID()); err != nil {
		return false, nil, 0, err
	}
	return true, payload, checksum, nil
}

func executeUpdate(conn *client.Conn, table, key, value string) error {
	_, err := conn.Execute(
		fmt.Sprintf("UPDATE %s SET field0 = ?, updated_at = ? WHERE id = ?", table),
		value, time.Now(), key)
	return err
}

// executeWrite stages the payload as a blob, binds it and drops the staged
// copy once the engine has stored the row.
func executeWrite(conn *client.Conn, blobs BlobDeleter, verb, table string, op Operation) error {
	stream, err := conn.CreateBlob()
	if err != nil {
		return err
	}
	if err := stream.Put(op.Payload); err != nil {
		stream.Close()
		return err
	}
	if err := stream.Close(); err != nil {
		return err
	}
	defer blobs.DeleteBlob(stream.ID())

	_, err = conn.Execute(
		fmt.Sprintf("%s INTO %s (id, field0, payload, checksum, updated_at) VALUES (?, ?, ?, ?, ?)", verb, table),
		op.Key, op.Value, stream.ID(), int64(xxhash.Sum64(op.Payload)), time.Now())
	return err
}

func executeDelete(conn *client.Conn, table, key string) error {
	_, err := conn.Execute(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), key)
	return err
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "busy")
}
