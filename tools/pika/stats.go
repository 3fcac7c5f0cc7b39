package main

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks benchmark statistics using atomic operations.
type Stats struct {
	// Counters per operation type
	ops    [5]uint64
	errors [5]uint64

	retries uint64

	// Transaction counters, only used with batching
	txCount   uint64
	txErrors  uint64
	txRetries uint64

	// Latency tracking (microseconds)
	mu        sync.Mutex
	latencies []int64

	// First error seen per operation type
	errMu     sync.Mutex
	firstErrs map[OpType]string
}

// NewStats creates a new stats tracker.
func NewStats() *Stats {
	return &Stats{
		latencies: make([]int64, 0, 100000),
		firstErrs: make(map[OpType]string),
	}
}

// RecordOp records a successful operation.
func (s *Stats) RecordOp(opType OpType, latency time.Duration) {
	atomic.AddUint64(&s.ops[opType], 1)

	s.mu.Lock()
	s.latencies = append(s.latencies, latency.Microseconds())
	s.mu.Unlock()
}

// RecordError records a failed operation and keeps the first message per type.
func (s *Stats) RecordError(opType OpType, err error) {
	atomic.AddUint64(&s.errors[opType], 1)

	s.errMu.Lock()
	if _, ok := s.firstErrs[opType]; !ok && err != nil {
		s.firstErrs[opType] = err.Error()
	}
	s.errMu.Unlock()
}

// RecordRetry records a retry attempt.
func (s *Stats) RecordRetry() {
	atomic.AddUint64(&s.retries, 1)
}

// RecordTx records a committed batch.
func (s *Stats) RecordTx() {
	atomic.AddUint64(&s.txCount, 1)
}

// RecordTxError records a batch that could not be committed.
func (s *Stats) RecordTxError() {
	atomic.AddUint64(&s.txErrors, 1)
}

// RecordTxRetry records a batch retry.
func (s *Stats) RecordTxRetry() {
	atomic.AddUint64(&s.txRetries, 1)
}

// Ops returns successful operations of one type.
func (s *Stats) Ops(opType OpType) uint64 {
	return atomic.LoadUint64(&s.ops[opType])
}

// Errors returns failed operations of one type.
func (s *Stats) Errors(opType OpType) uint64 {
	return atomic.LoadUint64(&s.errors[opType])
}

// TotalOps returns total successful operations.
func (s *Stats) TotalOps() uint64 {
	var total uint64
	for i := range s.ops {
		total += atomic.LoadUint64(&s.ops[i])
	}
	return total
}

// TotalErrors returns total errors.
func (s *Stats) TotalErrors() uint64 {
	var total uint64
	for i := range s.errors {
		total += atomic.LoadUint64(&s.errors[i])
	}
	return total
}

// Retries returns retry count.
func (s *Stats) Retries() uint64 {
	return atomic.LoadUint64(&s.retries)
}

// GetLatencyPercentiles returns p50, p90, p95, p99 in microseconds.
func (s *Stats) GetLatencyPercentiles() (p50, p90, p95, p99 int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.latencies) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]int64, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	p50 = sorted[n*50/100]
	p90 = sorted[n*90/100]
	p95 = sorted[n*95/100]
	p99 = sorted[n*99/100]

	return p50, p90, p95, p99
}

// GetLatencyStats returns min, max, avg in microseconds.
func (s *Stats) GetLatencyStats() (lo, hi, avg int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.latencies) == 0 {
		return 0, 0, 0
	}

	lo = s.latencies[0]
	hi = s.latencies[0]
	var sum int64

	for _, l := range s.latencies {
		lo = min(lo, l)
		hi = max(hi, l)
		sum += l
	}

	avg = sum / int64(len(s.latencies))
	return lo, hi, avg
}

// Snapshot is a copy of the current counters.
type Snapshot struct {
	Ops       uint64
	Errors    uint64
	Retries   uint64
	TxCount   uint64
	TxErrors  uint64
	TxRetries uint64
}

// GetSnapshot returns current stats snapshot.
func (s *Stats) GetSnapshot() Snapshot {
	return Snapshot{
		Ops:       s.TotalOps(),
		Errors:    s.TotalErrors(),
		Retries:   atomic.LoadUint64(&s.retries),
		TxCount:   atomic.LoadUint64(&s.txCount),
		TxErrors:  atomic.LoadUint64(&s.txErrors),
		TxRetries: atomic.LoadUint64(&s.txRetries),
	}
}

// PrintFinal prints final statistics.
func (s *Stats) PrintFinal(elapsed time.Duration) {
	totalOps := s.TotalOps()
	totalErrors := s.TotalErrors()
	retries := s.Retries()

	throughput := float64(totalOps) / elapsed.Seconds()

	fmt.Println()
	fmt.Printf("Total time:    %.2fs\n", elapsed.Seconds())
	fmt.Printf("Throughput:    %.2f ops/sec\n", throughput)
	fmt.Println()

	fmt.Println("Operations:")
	for op := OpRead; op <= OpUpsert; op++ {
		fmt.Printf("  %-7s %d\n", op.String()+":", s.Ops(op))
	}
	fmt.Printf("  TOTAL:  %d\n", totalOps)
	fmt.Println()

	if tx := atomic.LoadUint64(&s.txCount); tx > 0 {
		fmt.Printf("Transactions:  %d (errors: %d, retries: %d)\n",
			tx, atomic.LoadUint64(&s.txErrors), atomic.LoadUint64(&s.txRetries))
		fmt.Println()
	}

	if totalErrors > 0 || retries > 0 {
		fmt.Println("Errors/Retries:")
		s.errMu.Lock()
		for op := OpRead; op <= OpUpsert; op++ {
			if n := s.Errors(op); n > 0 {
				fmt.Printf("  %s errors: %d (first: %s)\n", op, n, s.firstErrs[op])
			}
		}
		s.errMu.Unlock()
		fmt.Printf("  Total errors:  %d\n", totalErrors)
		fmt.Printf("  Retries:       %d\n", retries)
		fmt.Println()
	}

	lo, hi, avg := s.GetLatencyStats()
	p50, p90, p95, p99 := s.GetLatencyPercentiles()

	fmt.Println("Latency (microseconds):")
	fmt.Printf("  Min:   %d\n", lo)
	fmt.Printf("  Avg:   %d\n", avg)
	fmt.Printf("  Max:   %d\n", hi)
	fmt.Printf("  P50:   %d\n", p50)
	fmt.Printf("  P90:   %d\n", p90)
	fmt.Printf("  P95:   %d\n", p95)
	fmt.Printf("  P99:   %d\n", p99)
}
