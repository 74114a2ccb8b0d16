package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"docmine/internal"
)

// BatchRunner fans a set of inputs out over a worker pool and collects
// the rows back in input order.
type BatchRunner struct {
	extractor     *Extractor
	logger        *slog.Logger
	workers       int
	queueSize     int
	progressEvery int
}

type BatchOption func(*BatchRunner)

func WithWorkers(n int) BatchOption {
	return func(r *BatchRunner) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithQueueSize(n int) BatchOption {
	return func(r *BatchRunner) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

func WithProgressEvery(n int) BatchOption {
	return func(r *BatchRunner) {
		if n > 0 {
			r.progressEvery = n
		}
	}
}

func NewBatchRunner(extractor *Extractor, logger *slog.Logger, opts ...BatchOption) *BatchRunner {
	r := &BatchRunner{
		extractor:     extractor,
		logger:        logger,
		workers:       64,
		queueSize:     256,
		progressEvery: 5,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

type batchJob struct {
	index int
	input internal.InputFile
}

// RunBatch processes every input concurrently and returns the flattened
// rows in input order. A canceled context stops dispatch; workers still
// finish the jobs they already picked up.
func (r *BatchRunner) RunBatch(ctx context.Context, inputs []internal.InputFile) []internal.ExtractionResult {
	if len(inputs) == 0 {
		return nil
	}

	perFile := make([][]internal.ExtractionResult, len(inputs))
	jobs := make(chan batchJob, r.queueSize)

	var wg sync.WaitGroup
	var processed atomic.Int64

	workers := r.workers
	if workers > len(inputs) {
		workers = len(inputs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.logger.Debug("worker started", "worker_id", workerID)
			for job := range jobs {
				perFile[job.index] = r.extractor.ProcessSingle(job.input)
				n := processed.Add(1)
				if r.progressEvery > 0 && n%int64(r.progressEvery) == 0 {
					r.logger.Info("progress", "processed", n, "total", len(inputs))
				}
			}
		}(i + 1)
	}

dispatch:
	for i, input := range inputs {
		select {
		case jobs <- batchJob{index: i, input: input}:
		case <-ctx.Done():
			r.logger.Warn("batch canceled, draining in-flight work", "dispatched", i, "total", len(inputs))
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]internal.ExtractionResult, 0, len(inputs))
	for _, rows := range perFile {
		out = append(out, rows...)
	}
	return out
}
