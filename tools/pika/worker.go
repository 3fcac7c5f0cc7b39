package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/maxpert/fbsql/client"
)

// Worker executes operations on its own connection.
type Worker struct {
	id          int
	conn        *client.Conn
	blobs       BlobDeleter
	table       string
	keyGen      *KeyGenerator
	opSelector  *OpSelector
	stats       *Stats
	retry       bool
	maxRetries  int
	batchSize   int
	payloadSize int
	rng         *rand.Rand
}

// NewWorker creates a new worker bound to connection id of the pool.
func NewWorker(id int, pool *Pool, cfg *Config, keyGen *KeyGenerator, opSelector *OpSelector, stats *Stats) *Worker {
	return &Worker{
		id:          id,
		conn:        pool.GetByIndex(id),
		blobs:       pool.Store(),
		table:       cfg.Table,
		keyGen:      keyGen,
		opSelector:  opSelector,
		stats:       stats,
		retry:       cfg.Retry,
		maxRetries:  cfg.MaxRetries,
		batchSize:   cfg.BatchSize,
		payloadSize: cfg.PayloadSize,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
	}
}

// RunLoad inserts keys [startKey, endKey).
func (w *Worker) RunLoad(ctx context.Context, startKey, endKey int, wg *sync.WaitGroup) {
	defer wg.Done()

	batch := make([]Operation, 0, w.batchSize)
	for i := startKey; i < endKey; i++ {
		select {
		case <-ctx.Done():
			w.flush(batch)
			return
		default:
		}

		op := Operation{
			Type:    OpInsert,
			Key:     w.keyGen.Key(uint64(i) + 1),
			Value:   generateFieldValue(w.rng, 100),
			Payload: generatePayload(w.rng, w.payloadSize),
		}
		batch = w.submit(batch, op)
	}
	w.flush(batch)
}

// RunBenchmark executes one operation per token received on opsChan.
func (w *Worker) RunBenchmark(ctx context.Context, opsChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	batch := make([]Operation, 0, w.batchSize)
	for {
		select {
		case <-ctx.Done():
			w.flush(batch)
			return
		case _, ok := <-opsChan:
			if !ok {
				w.flush(batch)
				return
			}
			batch = w.submit(batch, w.generateOp(w.opSelector.Select()))
		}
	}
}

// submit runs op directly without batching, otherwise queues it and runs the
// batch once full.
func (w *Worker) submit(batch []Operation, op Operation) []Operation {
	if w.batchSize <= 1 {
		start := time.Now()
		if err := w.executeWithRetry(op); err != nil {
			w.stats.RecordError(op.Type, err)
		} else {
			w.stats.RecordOp(op.Type, time.Since(start))
			if op.Type == OpInsert {
				w.keyGen.UpdateMaxKey(1)
			}
		}
		return batch
	}

	batch = append(batch, op)
	if len(batch) >= w.batchSize {
		w.executeBatchWithRetry(batch)
		batch = batch[:0]
	}
	return batch
}

func (w *Worker) flush(batch []Operation) {
	if len(batch) > 0 {
		w.executeBatchWithRetry(batch)
	}
}

func (w *Worker) generateOp(opType OpType) Operation {
	op := Operation{Type: opType}
	switch opType {
	case OpInsert:
		op.Key = w.keyGen.NextInsertKey()
	default:
		op.Key = w.keyGen.RandomExistingKey(w.rng)
	}
	if opType != OpRead && opType != OpDelete {
		op.Value = generateFieldValue(w.rng, 100)
	}
	if opType == OpInsert || opType == OpUpsert {
		op.Payload = generatePayload(w.rng, w.payloadSize)
	}
	return op
}

func (w *Worker) backoff(attempt int) {
	backoff := time.Duration(1<<uint(attempt-1)) * 10 * time.Millisecond
	jitter := time.Duration(w.rng.Int63n(int64(backoff / 2)))
	time.Sleep(backoff + jitter)
}

func (w *Worker) maxAttempts() int {
	if w.retry {
		return w.maxRetries + 1
	}
	return 1
}

func (w *Worker) executeWithRetry(op Operation) error {
	var lastErr error
	for attempt := 0; attempt < w.maxAttempts(); attempt++ {
		if attempt > 0 {
			w.backoff(attempt)
			w.stats.RecordRetry()
		}

		err := ExecuteOp(w.conn, w.blobs, w.table, op)
		if err == nil {
			return nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			break
		}
	}
	return lastErr
}

// executeBatchWithRetry executes a batch of operations as a transaction with retry.
func (w *Worker) executeBatchWithRetry(batch []Operation) {
	var lastErr error
	start := time.Now()

	insertCount := 0
	for _, op := range batch {
		if op.Type == OpInsert {
			insertCount++
		}
	}

	for attempt := 0; attempt < w.maxAttempts(); attempt++ {
		if attempt > 0 {
			w.backoff(attempt)
			w.stats.RecordTxRetry()
		}

		err := w.executeBatch(batch)
		if err == nil {
			latency := time.Since(start)
			for _, op := range batch {
				w.stats.RecordOp(op.Type, latency/time.Duration(len(batch)))
			}
			w.stats.RecordTx()
			if insertCount > 0 {
				w.keyGen.UpdateMaxKey(int64(insertCount))
			}
			return
		}

		lastErr = err
		if !IsRetryableError(err) {
			break
		}
	}

	for _, op := range batch {
		w.stats.RecordError(op.Type, lastErr)
	}
	w.stats.RecordTxError()
}

// executeBatch runs the batch inside BEGIN/COMMIT on the worker connection.
func (w *Worker) executeBatch(batch []Operation) error {
	if _, err := w.conn.Execute("BEGIN"); err != nil {
		return err
	}

	for _, op := range batch {
		if err := ExecuteOp(w.conn, w.blobs, w.table, op); err != nil {
			w.conn.Execute("ROLLBACK")
			return err
		}
	}

	_, err := w.conn.Execute("COMMIT")
	return err
}

// executeLoad runs the load phase.
func executeLoad(ctx context.Context, cfg *Config) error {
	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║            Pika Load Phase                           ║")
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("DataDir:     %s\n", cfg.DataDir)
	fmt.Printf("Database:    %s\n", cfg.Database)
	fmt.Printf("Table:       %s\n", cfg.Table)
	fmt.Printf("Records:     %d\n", cfg.Records)
	fmt.Printf("Threads:     %d\n", cfg.Threads)
	fmt.Printf("BatchSize:   %d\n", cfg.BatchSize)
	fmt.Printf("PayloadSize: %d\n", cfg.PayloadSize)
	fmt.Printf("CreateTable: %v\n", cfg.CreateTable)
	fmt.Printf("DropExisting: %v\n", cfg.DropExisting)
	fmt.Println()

	pool, err := NewPool(cfg.DataDir, cfg.Database, cfg.Threads, cfg.Compression)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if cfg.CreateTable {
		fmt.Println("Creating table...")
		if err := pool.CreateTable(cfg.Table, cfg.DropExisting); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Get existing row count to offset key generation
	existingRows, err := pool.GetRowCount(cfg.Table)
	if err != nil {
		fmt.Printf("Warning: failed to get row count: %v, starting from 0\n", err)
		existingRows = 0
	} else {
		fmt.Printf("Existing rows: %d (starting from key %d)\n", existingRows, existingRows)
	}

	stats := NewStats()
	keyGen := NewKeyGenerator("rec", existingRows)

	recordsPerWorker := cfg.Records / cfg.Threads
	remainder := cfg.Records % cfg.Threads

	var wg sync.WaitGroup
	start := time.Now()

	fmt.Printf("Loading %d records with %d threads...\n", cfg.Records, cfg.Threads)

	reporterCtx, stopReporter := context.WithCancel(ctx)
	go reportProgress(reporterCtx, stats)

	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		// Offset by existing rows to avoid duplicate keys
		startKey := int(existingRows) + i*recordsPerWorker
		endKey := startKey + recordsPerWorker
		if i == cfg.Threads-1 {
			endKey += remainder
		}

		opSelector := NewOpSelector(WorkloadDistribution{Insert: 100}, time.Now().UnixNano()+int64(i))
		worker := NewWorker(i, pool, cfg, keyGen, opSelector, stats)
		go worker.RunLoad(ctx, startKey, endKey, &wg)
	}

	wg.Wait()
	stopReporter()
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("                    LOAD COMPLETE                      ")
	fmt.Println("═══════════════════════════════════════════════════════")
	stats.PrintFinal(elapsed)

	return nil
}

// executeRun runs the benchmark phase.
func executeRun(ctx context.Context, cfg *Config) error {
	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║            Pika Benchmark Phase                      ║")
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Println()

	dist := cfg.GetWorkloadDistribution()
	if err := dist.Validate(); err != nil {
		return err
	}

	fmt.Printf("DataDir:     %s\n", cfg.DataDir)
	fmt.Printf("Database:    %s\n", cfg.Database)
	fmt.Printf("Table:       %s\n", cfg.Table)
	fmt.Printf("Workload:    %s\n", cfg.Workload)
	fmt.Printf("Distribution: R:%d%% U:%d%% I:%d%% D:%d%% P:%d%%\n",
		dist.Read, dist.Update, dist.Insert, dist.Delete, dist.Upsert)
	fmt.Printf("Operations:  %d\n", cfg.Operations)
	if cfg.Duration > 0 {
		fmt.Printf("Duration:    %s\n", cfg.Duration)
	}
	fmt.Printf("Threads:     %d\n", cfg.Threads)
	fmt.Printf("BatchSize:   %d\n", cfg.BatchSize)
	fmt.Printf("Retry:       %v (max: %d)\n", cfg.Retry, cfg.MaxRetries)
	fmt.Println()

	pool, err := NewPool(cfg.DataDir, cfg.Database, cfg.Threads, cfg.Compression)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	rowCount, err := pool.GetRowCount(cfg.Table)
	if err != nil {
		return fmt.Errorf("failed to get row count: %w", err)
	}
	fmt.Printf("Existing rows: %d\n\n", rowCount)

	stats := NewStats()
	keyGen := NewKeyGenerator("rec", rowCount)

	opsChan := make(chan struct{}, cfg.Threads*10)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		opSelector := NewOpSelector(dist, time.Now().UnixNano()+int64(i))
		worker := NewWorker(i, pool, cfg, keyGen, opSelector, stats)
		go worker.RunBenchmark(ctx, opsChan, &wg)
	}

	reporterCtx, stopReporter := context.WithCancel(ctx)
	go reportProgress(reporterCtx, stats)

	// Feed operations
	if cfg.Duration > 0 {
		deadline := time.After(cfg.Duration)
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-deadline:
				break loop
			case opsChan <- struct{}{}:
			}
		}
	} else {
	opsLoop:
		for i := 0; i < cfg.Operations; i++ {
			select {
			case <-ctx.Done():
				break opsLoop
			case opsChan <- struct{}{}:
			}
		}
	}

	close(opsChan)
	wg.Wait()
	stopReporter()
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════")
	fmt.Println("                  BENCHMARK COMPLETE                   ")
	fmt.Println("═══════════════════════════════════════════════════════")
	stats.PrintFinal(elapsed)

	if cfg.Verify {
		return verifyWithPool(pool, cfg)
	}
	return nil
}
