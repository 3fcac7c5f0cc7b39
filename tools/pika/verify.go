package main

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/maxpert/fbsql/client"
)

// RowMismatch describes a row whose payload does not match its checksum.
type RowMismatch struct {
	Key  string
	Want int64
	Got  int64
}

// VerifyResult holds verification results.
type VerifyResult struct {
	RowCount       int64
	SampledRows    int
	MatchedRows    int
	MissingRows    int
	MismatchedRows int
	Mismatches     []RowMismatch // first N mismatches with details
}

// OK reports whether every sampled row was found intact.
func (r *VerifyResult) OK() bool {
	return r.MismatchedRows == 0 && r.MissingRows == 0
}

const maxReportedMismatches = 10

// Verifier reads payload blobs back and checks them against stored checksums.
type Verifier struct {
	conn    *client.Conn
	blobs   BlobDeleter
	table   string
	samples int
}

// NewVerifier creates a new Verifier.
func NewVerifier(conn *client.Conn, blobs BlobDeleter, table string, samples int) *Verifier {
	return &Verifier{
		conn:    conn,
		blobs:   blobs,
		table:   table,
		samples: samples,
	}
}

// Verify runs the integrity check.
func (v *Verifier) Verify() (*VerifyResult, error) {
	result := &VerifyResult{}

	count, err := v.rowCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get row count: %w", err)
	}
	result.RowCount = count

	keys, err := v.sampleKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to sample keys: %w", err)
	}
	result.SampledRows = len(keys)

	for _, key := range keys {
		found, payload, checksum, err := readPayload(v.conn, v.blobs, v.table, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !found {
			result.MissingRows++
			continue
		}

		got := int64(xxhash.Sum64(payload))
		if got == checksum {
			result.MatchedRows++
			continue
		}
		result.MismatchedRows++
		if len(result.Mismatches) < maxReportedMismatches {
			result.Mismatches = append(result.Mismatches, RowMismatch{Key: key, Want: checksum, Got: got})
		}
	}

	return result, nil
}

func (v *Verifier) rowCount() (int64, error) {
	rs, err := v.conn.Query(fmt.Sprintf("SELECT COUNT(*) FROM %s", v.table))
	if err != nil {
		return 0, err
	}
	defer rs.Close()

	if ok, err := rs.Next(); err != nil || !ok {
		return 0, err
	}
	f, err := rs.Field(0)
	if err != nil {
		return 0, err
	}
	return f.AsInt64()
}

// sampleKeys picks random keys whose payload is set.
func (v *Verifier) sampleKeys() ([]string, error) {
	rs, err := v.conn.Query(
		fmt.Sprintf("SELECT id FROM %s WHERE payload IS NOT NULL ORDER BY RANDOM() LIMIT ?", v.table),
		int64(v.samples))
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var keys []string
	for {
		ok, err := rs.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return keys, nil
		}
		f, err := rs.Field(0)
		if err != nil {
			return nil, err
		}
		key, err := f.AsString()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
}

// PrintResult prints a verification summary.
func PrintResult(r *VerifyResult) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("                  VERIFICATION RESULT                  ")
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Printf("Row count:     %d\n", r.RowCount)
	fmt.Printf("Sampled rows:  %d\n", r.SampledRows)
	fmt.Printf("Matched:       %d\n", r.MatchedRows)
	fmt.Printf("Missing:       %d\n", r.MissingRows)
	fmt.Printf("Mismatched:    %d\n", r.MismatchedRows)

	for _, m := range r.Mismatches {
		fmt.Printf("  %s: stored %016x, read %016x\n", m.Key, uint64(m.Want), uint64(m.Got))
	}

	if r.OK() {
		fmt.Println("\nPASSED")
	} else {
		fmt.Println("\nFAILED")
	}
}

func verifyWithPool(pool *Pool, cfg *Config) error {
	result, err := NewVerifier(pool.GetByIndex(0), pool.Store(), cfg.Table, cfg.VerifySamples).Verify()
	if err != nil {
		return err
	}
	PrintResult(result)
	if !result.OK() {
		return fmt.Errorf("%d of %d sampled rows failed verification",
			result.MismatchedRows+result.MissingRows, result.SampledRows)
	}
	return nil
}

// executeVerify opens a single connection and verifies the table.
func executeVerify(cfg *Config) error {
	pool, err := NewPool(cfg.DataDir, cfg.Database, 1, cfg.Compression)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	return verifyWithPool(pool, cfg)
}
