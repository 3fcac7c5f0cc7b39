package main

import (
	"context"
	"fmt"
	"time"
)

// reportProgress prints real-time progress every second.
func reportProgress(ctx context.Context, stats *Stats) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var lastSnapshot Snapshot
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := stats.GetSnapshot()
			elapsed := time.Since(startTime)

			opsSec := snapshot.Ops - lastSnapshot.Ops
			cumThroughput := float64(snapshot.Ops) / elapsed.Seconds()

			if snapshot.TxCount > 0 {
				txSec := snapshot.TxCount - lastSnapshot.TxCount
				fmt.Printf("[%5.0fs] ops/sec: %6d | tx/sec: %5d | total: %8d | tx: %6d | errors: %4d | retries: %4d | throughput: %.1f ops/sec\n",
					elapsed.Seconds(),
					opsSec,
					txSec,
					snapshot.Ops,
					snapshot.TxCount,
					snapshot.Errors+snapshot.TxErrors,
					snapshot.Retries+snapshot.TxRetries,
					cumThroughput,
				)
			} else {
				fmt.Printf("[%5.0fs] ops/sec: %6d | total: %8d | errors: %4d | retries: %4d | throughput: %.1f ops/sec\n",
					elapsed.Seconds(),
					opsSec,
					snapshot.Ops,
					snapshot.Errors,
					snapshot.Retries,
					cumThroughput,
				)
			}

			lastSnapshot = snapshot
		}
	}
}
