package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// BatchResult is one resolved query of a batch, at its input position.
type BatchResult struct {
	Index      int
	Query      string
	Resolution Resolution
}

// BatchProcessor resolves many queries concurrently on a bounded worker pool.
type BatchProcessor struct {
	answerer   Answerer
	maxWorkers int
	timeout    time.Duration
	newPool    func(size int) (*ants.Pool, error)
}

func newBlockingPool(size int) (*ants.Pool, error) {
	return ants.NewPool(size)
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(answerer Answerer, maxWorkers int, timeout time.Duration) *BatchProcessor {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BatchProcessor{
		answerer:   answerer,
		maxWorkers: maxWorkers,
		timeout:    timeout,
		newPool:    newBlockingPool,
	}
}

// Process resolves every query and returns results in input order. onDone, if set, is
// called once per finished query from worker goroutines. When the batch times out the
// partial results are returned with an error; unfinished entries have an empty Stage.
func (bp *BatchProcessor) Process(ctx context.Context, queries []string, onDone func(BatchResult)) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))
	if len(queries) == 0 {
		return results, nil
	}

	processCtx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	pool, err := bp.newPool(min(bp.maxWorkers, len(queries)))
	if err != nil {
		return nil, fmt.Errorf("create batch worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, q := range queries {
		idx, query := i, q
		results[idx] = BatchResult{Index: idx, Query: query}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if processCtx.Err() != nil {
				return
			}
			res := BatchResult{Index: idx, Query: query, Resolution: bp.answerer.Resolve(processCtx, query)}
			results[idx] = res
			if onDone != nil {
				onDone(res)
			}
		})
		if err != nil {
			wg.Done()
			// Tasks already submitted still write to results.
			wg.Wait()
			return results, fmt.Errorf("submit query %d: %w", idx, err)
		}
	}

	wg.Wait()

	if err := processCtx.Err(); err != nil {
		return results, fmt.Errorf("batch processing stopped: %w", err)
	}

	return results, nil
}
