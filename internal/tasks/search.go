package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/matcher"
	"github.com/desertthunder/spimport/internal/metrics"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/shared"
	"golang.org/x/time/rate"
)

type searchJob struct {
	index int
	query models.Query
}

type searchOutcome struct {
	index      int
	result     QueryResult
	candidates []models.SearchCandidate
}

// search runs every query through a rate-limited worker pool and matches each
// result as it arrives. Results keep their query positions.
func (e *ImportEngine) search(ctx context.Context, progress chan<- ProgressUpdate, result *ImportResult, logger *log.Logger) error {
	total := len(result.Queries)
	if total == 0 {
		logger.Warn("no queries to search")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.sendProgress(progress, searchStartedUpdate(total))

	queries := make([]models.Query, total)
	for i, qr := range result.Queries {
		queries[i] = qr.Query
	}

	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), 1)
	jobs := make(chan searchJob)
	outcomes := make(chan searchOutcome, total)

	workers := min(e.opts.Concurrency, total)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go e.searchWorker(ctx, &wg, limiter, jobs, outcomes)
	}

	go func() {
		defer close(jobs)
		for i, q := range queries {
			select {
			case <-ctx.Done():
				return
			case jobs <- searchJob{index: i, query: q}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	done := make([]bool, total)
	for out := range outcomes {
		completed++
		done[out.index] = true
		qr := out.result
		if qr.Err == nil {
			qr.Match = matcher.Select(qr.Query.ArtistKey, out.candidates)
		}
		result.Queries[out.index] = qr

		switch {
		case qr.Err != nil:
			result.SearchFailed++
			metrics.SearchesTotal.WithLabelValues(metrics.StatusError).Inc()
			logger.Warn("search failed", "query", qr.Query.SearchText, "err", qr.Err)
		case qr.Match.Ok():
			result.Matched++
			metrics.SearchesTotal.WithLabelValues(metrics.StatusOK).Inc()
			metrics.MatchesTotal.WithLabelValues("matched").Inc()
			logger.Debug("found", "query", qr.Query.SearchText, "uri", qr.Match.URI)
		default:
			result.Unmatched++
			metrics.SearchesTotal.WithLabelValues(metrics.StatusOK).Inc()
			metrics.MatchesTotal.WithLabelValues("unmatched").Inc()
			logger.Debug("could not find", "query", qr.Query.SearchText, "err", qr.Problem())
		}
		e.sendProgress(progress, searchTrackUpdate(completed, total, qr))
	}

	if completed != total {
		for i, ok := range done {
			if !ok {
				result.Queries[i].Err = shared.ErrNotSearched
				result.NotSearched++
			}
		}
		logger.Warn("search stopped early", "searched", completed, "not_searched", result.NotSearched)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if completed != total {
		return fmt.Errorf("%w: %d of %d searches completed", shared.ErrServiceUnavailable, completed, total)
	}

	logger.Info("search complete", "matched", result.Matched, "unmatched", result.Unmatched, "failed", result.SearchFailed)
	return nil
}

// searchWorker runs jobs until the channel closes or the context is cancelled.
// A job the limiter cannot schedule before the deadline is recorded as a failed search.
func (e *ImportEngine) searchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan searchJob,
	outcomes chan<- searchOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		q := job.query
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// The next slot falls after the context deadline.
			qr := QueryResult{Query: q, Err: fmt.Errorf("%w: search not started: %w", shared.ErrServiceUnavailable, err)}
			outcomes <- searchOutcome{index: job.index, result: qr}
			continue
		}

		start := time.Now()
		candidates, err := e.searcher.SearchTracks(ctx, q.SearchText, e.opts.SearchLimit, 0)
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
		if ctx.Err() != nil {
			return
		}

		qr := QueryResult{Query: q, Candidates: len(candidates), Err: err}
		outcomes <- searchOutcome{index: job.index, result: qr, candidates: candidates}
	}
}
