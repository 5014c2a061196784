package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/metrics"
	"github.com/desertthunder/spimport/internal/shared"
)

// Batches splits uris into consecutive groups of at most size, preserving order.
func Batches(uris []string, size int) [][]string {
	if size <= 0 {
		size = shared.MaxBatchSize
	}
	if len(uris) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(uris)+size-1)/size)
	for start := 0; start < len(uris); start += size {
		end := min(start+size, len(uris))
		batches = append(batches, uris[start:end])
	}
	return batches
}

// submit sends every batch once and records the outcome. Failed batches are not retried.
func (e *ImportEngine) submit(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlistID string,
	uris []string,
	result *ImportResult,
	logger *log.Logger,
) error {
	batches := Batches(uris, e.opts.BatchSize)
	if len(batches) == 0 {
		logger.Warn("nothing matched, no tracks to add")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	result.Batches = make([]BatchResult, len(batches))
	for i, batch := range batches {
		result.Batches[i] = BatchResult{Index: i, URIs: batch}
	}

	e.sendProgress(progress, submitStartedUpdate(len(batches), len(uris)))

	var err error
	switch e.opts.SubmitMode {
	case SubmitParallel:
		err = e.submitParallel(ctx, progress, playlistID, result)
	default:
		err = e.submitStrict(ctx, progress, playlistID, result)
	}

	for _, b := range result.Batches {
		switch {
		case b.Err != nil:
			result.SubmitFailed += len(b.URIs)
			metrics.BatchesTotal.WithLabelValues(metrics.StatusError).Inc()
			logger.Error("failed to add batch", "batch", b.Index+1, "tracks", len(b.URIs), "err", b.Err)
		default:
			result.Submitted += len(b.URIs)
			metrics.BatchesTotal.WithLabelValues(metrics.StatusOK).Inc()
			metrics.TracksAddedTotal.Add(float64(len(b.URIs)))
			logger.Info("added batch", "batch", b.Index+1, "tracks", len(b.URIs))
		}
	}
	return err
}

func (e *ImportEngine) submitStrict(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, result *ImportResult) error {
	total := len(result.Batches)
	for i := range result.Batches {
		if err := ctx.Err(); err != nil {
			e.markCancelled(result.Batches[i:], err)
			return err
		}
		result.Batches[i].Err = e.addBatch(ctx, playlistID, result.Batches[i])
		e.sendProgress(progress, batchUpdate(i+1, total, result.Batches[i]))
	}
	return nil
}

func (e *ImportEngine) submitParallel(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, result *ImportResult) error {
	total := len(result.Batches)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for i := range result.Batches {
		wg.Add(1)
		go func(b *BatchResult) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				b.Err = fmt.Errorf("%w: %w", shared.ErrBatchSubmit, err)
				return
			}
			b.Err = e.addBatch(ctx, playlistID, *b)

			mu.Lock()
			completed++
			step := completed
			mu.Unlock()
			e.sendProgress(progress, batchUpdate(step, total, *b))
		}(&result.Batches[i])
	}
	wg.Wait()
	return ctx.Err()
}

func (e *ImportEngine) addBatch(ctx context.Context, playlistID string, b BatchResult) error {
	if err := e.adder.AddTracks(ctx, playlistID, b.URIs); err != nil {
		return fmt.Errorf("%w: batch %d: %w", shared.ErrBatchSubmit, b.Index+1, err)
	}
	return nil
}

func (e *ImportEngine) markCancelled(batches []BatchResult, err error) {
	for i := range batches {
		batches[i].Err = fmt.Errorf("%w: %w", shared.ErrBatchSubmit, err)
	}
}
