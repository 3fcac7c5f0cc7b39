package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const version = "0.2.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "load":
		runLoad(args)
	case "run":
		runBenchmark(args)
	case "verify":
		runVerify(args)
	case "version":
		fmt.Printf("pika version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pika - fbsql workload tool

Usage:
  pika <command> [options]

Commands:
  load      Load rows with blob payloads
  run       Run benchmark workload
  verify    Read payload blobs back and check their checksums
  version   Print version
  help      Show this help

Common Options:
  --data-dir      Directory holding the database and blob store (default: ./pika-data)
  --database      SQLite database file (default: pika.db)
  --table         Table name (default: benchmarks)
  --compression   Blob compression level 0-4 (default: 1)

Load Options:
  --records       Number of records to load (default: 10000)
  --threads       Number of concurrent threads (default: 4)
  --payload-size  Blob payload bytes per row (default: 4096)
  --batch-size    Operations per transaction (default: 1 = no batching)
  --create-table  Create table before loading (default: true)
  --drop-existing Drop existing table before creating (default: false)

Run Options:
  --workload      Workload type: mixed|write-only|read-only|update-heavy (default: mixed)
  --operations    Total operations to execute (default: 50000)
  --duration      Duration to run (e.g., 60s), overrides --operations
  --threads       Number of concurrent threads (default: 4)
  --read-pct      Read percentage (overrides workload default)
  --update-pct    Update percentage (overrides workload default)
  --insert-pct    Insert percentage (overrides workload default)
  --delete-pct    Delete percentage (overrides workload default)
  --upsert-pct    Upsert percentage (overrides workload default)
  --payload-size  Blob payload bytes per insert/upsert (default: 4096)
  --batch-size    Operations per transaction (default: 1 = no batching)
  --retry         Retry when the database is busy (default: true)
  --max-retries   Maximum retry attempts (default: 3)
  --verify        Verify payloads after benchmark (default: false)
  --verify-samples Number of rows to verify (default: 100)

Verify Options:
  --samples       Number of random rows to verify (default: 100)

Examples:
  pika load --records=10000 --payload-size=65536 --create-table
  pika run --workload=mixed --operations=50000 --verify
  pika verify --samples=500`)
}

func storageFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DataDir, "data-dir", "./pika-data", "Directory holding the database and blob store")
	fs.StringVar(&cfg.Database, "database", "pika.db", "SQLite database file")
	fs.StringVar(&cfg.Table, "table", "benchmarks", "Table name")
	fs.IntVar(&cfg.Compression, "compression", 1, "Blob compression level 0-4")
}

// signalContext returns a context cancelled on interrupt or after timeLimit.
func signalContext(timeLimit time.Duration) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeLimit > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeLimit)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nInterrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func parseConfig(fs *flag.FlagSet, cfg *Config, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
}

func runLoad(args []string) {
	cfg := &Config{}
	fs := flag.NewFlagSet("load", flag.ExitOnError)

	var timeLimit time.Duration
	storageFlags(fs, cfg)
	fs.DurationVar(&timeLimit, "time-limit", 0, "Maximum time to run (e.g., 30s, 1m)")
	fs.IntVar(&cfg.Records, "records", 10000, "Number of records to load")
	fs.IntVar(&cfg.Threads, "threads", 4, "Number of concurrent threads")
	fs.IntVar(&cfg.PayloadSize, "payload-size", 4096, "Blob payload bytes per row")
	fs.IntVar(&cfg.BatchSize, "batch-size", 1, "Operations per transaction (1 = no batching)")
	fs.BoolVar(&cfg.CreateTable, "create-table", true, "Create table before loading")
	fs.BoolVar(&cfg.DropExisting, "drop-existing", false, "Drop existing table before creating")
	cfg.Retry = true
	cfg.MaxRetries = 3
	parseConfig(fs, cfg, args)

	ctx, cancel := signalContext(timeLimit)
	defer cancel()

	if err := executeLoad(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Load failed: %v\n", err)
		os.Exit(1)
	}
}

func runBenchmark(args []string) {
	cfg := &Config{}
	fs := flag.NewFlagSet("run", flag.ExitOnError)

	var timeLimit time.Duration
	storageFlags(fs, cfg)
	fs.DurationVar(&timeLimit, "time-limit", 0, "Maximum time to run (e.g., 30s, 1m)")
	fs.StringVar(&cfg.Workload, "workload", "mixed", "Workload type")
	fs.IntVar(&cfg.Operations, "operations", 50000, "Total operations to execute")
	fs.DurationVar(&cfg.Duration, "duration", 0, "Duration to run (overrides --operations)")
	fs.IntVar(&cfg.Threads, "threads", 4, "Number of concurrent threads")
	fs.IntVar(&cfg.ReadPct, "read-pct", -1, "Read percentage (overrides workload)")
	fs.IntVar(&cfg.UpdatePct, "update-pct", -1, "Update percentage (overrides workload)")
	fs.IntVar(&cfg.InsertPct, "insert-pct", -1, "Insert percentage (overrides workload)")
	fs.IntVar(&cfg.DeletePct, "delete-pct", -1, "Delete percentage (overrides workload)")
	fs.IntVar(&cfg.UpsertPct, "upsert-pct", -1, "Upsert percentage (overrides workload)")
	fs.IntVar(&cfg.PayloadSize, "payload-size", 4096, "Blob payload bytes per insert/upsert")
	fs.IntVar(&cfg.BatchSize, "batch-size", 1, "Operations per transaction (1 = no batching)")
	fs.BoolVar(&cfg.Retry, "retry", true, "Retry when the database is busy")
	fs.IntVar(&cfg.MaxRetries, "max-retries", 3, "Maximum retry attempts")
	fs.BoolVar(&cfg.Verify, "verify", false, "Verify payloads after benchmark")
	fs.IntVar(&cfg.VerifySamples, "verify-samples", 100, "Number of random rows to verify")
	parseConfig(fs, cfg, args)

	ctx, cancel := signalContext(timeLimit)
	defer cancel()

	if err := executeRun(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
}

func runVerify(args []string) {
	cfg := &Config{
		Threads: 1, // Default for verify to pass validation
	}
	fs := flag.NewFlagSet("verify", flag.ExitOnError)

	storageFlags(fs, cfg)
	fs.IntVar(&cfg.VerifySamples, "samples", 100, "Number of random rows to verify")
	parseConfig(fs, cfg, args)

	if err := executeVerify(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Verify failed: %v\n", err)
		os.Exit(1)
	}
}
