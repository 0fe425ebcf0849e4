//go:build test

package suggest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bastiangx/nameserve/pkg/rename"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var leakRequests = []rename.Request{
	{Code: snippet, Line: 1, Column: 5, Subtokens: rename.Auto},
	{Code: snippet, Line: 1, Column: 18, Subtokens: 2},
	{Code: snippet, Line: 1, Column: 1, Subtokens: rename.Auto},
	{Code: snippet, Line: 7, Column: 1, Subtokens: rename.Auto},
}

func TestMemoryLeakConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
		parallel            bool
	}{
		{workers: 1, iterationsPerWorker: 200},
		{workers: 4, iterationsPerWorker: 50},
		{workers: 4, iterationsPerWorker: 50, parallel: true},
	}

	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d_parallel_%t", config.workers, config.iterationsPerWorker, config.parallel), func(t *testing.T) {
			runConcurrentMemoryTest(t, config.workers, config.iterationsPerWorker, config.parallel)
		})
	}
}

func runConcurrentMemoryTest(t *testing.T, workers, iterationsPerWorker int, parallel bool) {
	engine, _ := newEngine(t, parallel)

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < iterationsPerWorker; iter++ {
				for _, req := range leakRequests {
					_, _ = engine.Rename(context.Background(), req)
				}
			}
		}()
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	totalOps := workers * iterationsPerWorker * len(leakRequests)
	memDelta := int64(final.HeapAlloc) - int64(baseline.HeapAlloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("workers=%d iter_per_worker=%d total_ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		workers, iterationsPerWorker, totalOps, memDelta, memPerOp, goroutineDelta)

	if got := engine.Stats()["requests"]; got != totalOps {
		t.Errorf("engine counted %d requests, want %d", got, totalOps)
	}
	if memPerOp > 1000 {
		t.Errorf("excessive memory retained per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
