package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spimport/internal/metrics"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/shared"
)

// Searcher runs a track search on the destination service.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit, offset int) ([]models.SearchCandidate, error)
}

// PlaylistAdder appends tracks to a destination playlist.
type PlaylistAdder interface {
	// AddTracks adds at most [shared.MaxBatchSize] URIs in one request.
	AddTracks(ctx context.Context, playlistID string, uris []string) error
}

// SubmitMode controls how batches are sent.
type SubmitMode string

const (
	SubmitStrict   SubmitMode = "strict"   // One batch at a time, in order
	SubmitParallel SubmitMode = "parallel" // All batches concurrently
)

// ParseSubmitMode validates a submit mode name. Empty selects [SubmitStrict].
func ParseSubmitMode(s string) (SubmitMode, error) {
	switch SubmitMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SubmitStrict:
		return SubmitStrict, nil
	case SubmitParallel:
		return SubmitParallel, nil
	default:
		return "", fmt.Errorf("%w: submit mode %q (expected strict or parallel)", shared.ErrInvalidArgument, s)
	}
}

// EngineOpts tunes an import run.
type EngineOpts struct {
	Concurrency int        // Concurrent search workers (default: 4)
	RateLimit   float64    // Searches per second (default: 5)
	BatchSize   int        // URIs per submission (default and max: 80)
	SearchLimit int        // Candidates requested per search (default: 50)
	SubmitMode  SubmitMode // Batch submission order
	DryRun      bool       // Skip submission
}

// OptsFromConfig builds engine options from the [import] config section.
func OptsFromConfig(cfg shared.ImportConfig) (EngineOpts, error) {
	mode, err := ParseSubmitMode(cfg.SubmitMode)
	if err != nil {
		return EngineOpts{}, err
	}
	return EngineOpts{
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.RateLimit,
		BatchSize:   cfg.BatchSize,
		SearchLimit: cfg.SearchLimit,
		SubmitMode:  mode,
	}, nil
}

func (o EngineOpts) withDefaults() EngineOpts {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Concurrency > 16 {
		o.Concurrency = 16
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	if o.BatchSize <= 0 || o.BatchSize > shared.MaxBatchSize {
		o.BatchSize = shared.MaxBatchSize
	}
	if o.SearchLimit <= 0 || o.SearchLimit > 50 {
		o.SearchLimit = 50
	}
	if o.SubmitMode == "" {
		o.SubmitMode = SubmitStrict
	}
	return o
}

// QueryResult pairs a query with its search and match outcome.
type QueryResult struct {
	Query      models.Query
	Candidates int                // Number of candidates returned by search
	Match      models.MatchResult // Zero when the search failed
	Err        error              // Search error, if any
}

// Searched reports whether the search call succeeded.
func (q QueryResult) Searched() bool {
	return q.Err == nil
}

// Problem returns why the query produced no URI, or nil when it matched.
// Unmatched queries wrap [shared.ErrUnmatched].
func (q QueryResult) Problem() error {
	switch {
	case q.Err != nil:
		return q.Err
	case q.Match.Ok():
		return nil
	default:
		return fmt.Errorf("%w: %s", shared.ErrUnmatched, q.Match.Reason)
	}
}

// BatchResult records one submission.
type BatchResult struct {
	Index int
	URIs  []string
	Err   error
}

// ImportResult contains everything recorded during a run.
type ImportResult struct {
	RunID      string
	Source     string
	PlaylistID string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Queries    []QueryResult                 // One per query, in source order
	Extraction []providers.ExtractionFailure // Entries that produced no query
	Batches    []BatchResult                 // One per submitted batch, in batch order

	Matched          int
	Unmatched        int
	SearchFailed     int
	NotSearched      int // Queries left when the run was cancelled
	ExtractionFailed int
	Submitted        int // URIs in successful batches
	SubmitFailed     int // URIs in failed batches
}

// MatchedURIs returns the matched URIs in query order.
func (r *ImportResult) MatchedURIs() []string {
	uris := make([]string, 0, r.Matched)
	for _, q := range r.Queries {
		if q.Match.Ok() {
			uris = append(uris, q.Match.URI)
		}
	}
	return uris
}

// Duration returns how long the run took.
func (r *ImportResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is a one-line description of the run.
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("%d matched, %d unmatched, %d search failed, %d not searched, %d not extracted, %d added, %d failed to add",
		r.Matched, r.Unmatched, r.SearchFailed, r.NotSearched, r.ExtractionFailed, r.Submitted, r.SubmitFailed)
}

// ImportEngine runs imports against a destination service.
type ImportEngine struct {
	searcher Searcher
	adder    PlaylistAdder
	opts     EngineOpts
	logger   *log.Logger
}

// NewImportEngine creates an engine. A nil logger selects the default logger.
func NewImportEngine(searcher Searcher, adder PlaylistAdder, opts EngineOpts, logger *log.Logger) *ImportEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &ImportEngine{
		searcher: searcher,
		adder:    adder,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Preview gathers the source and builds queries without calling the destination service.
func (e *ImportEngine) Preview(ctx context.Context, progress chan<- ProgressUpdate, provider providers.Provider) (*ImportResult, error) {
	result := e.newResult(provider, "")
	result.DryRun = true

	if err := e.gather(ctx, progress, provider, result); err != nil {
		return nil, err
	}

	result.FinishedAt = time.Now()
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

// Run imports every query the provider yields into playlistID.
//
// Gather errors abort the run and are returned alone. Cancellation stops the run
// between stages and before each search or batch; the partial result is returned
// together with the context error.
func (e *ImportEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, provider providers.Provider, playlistID string) (*ImportResult, error) {
	if e.searcher == nil {
		return nil, fmt.Errorf("%w: search service not initialized", shared.ErrServiceUnavailable)
	}
	if !e.opts.DryRun {
		if e.adder == nil {
			return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
		}
		if playlistID == "" {
			return nil, fmt.Errorf("%w: target playlist", shared.ErrMissingArgument)
		}
	}

	result := e.newResult(provider, playlistID)
	logger := shared.WithLogger(e.logger, "run", result.RunID)
	logger.Info("starting import", "source", result.Source, "playlist", playlistID, "dry_run", result.DryRun)

	if err := e.gather(ctx, progress, provider, result); err != nil {
		e.record(result, err)
		return nil, err
	}

	if err := e.search(ctx, progress, result, logger); err != nil {
		e.record(e.finish(result), err)
		return result, err
	}

	uris := result.MatchedURIs()
	if result.DryRun {
		logger.Info("dry run, skipping submission", "uris", len(uris))
	} else if err := e.submit(ctx, progress, playlistID, uris, result, logger); err != nil {
		e.record(e.finish(result), err)
		return result, err
	}

	e.record(e.finish(result), nil)
	logger.Info("import finished", "summary", result.Summary(), "duration", result.Duration().Round(time.Millisecond))
	e.sendProgress(progress, doneUpdate(result))
	return result, nil
}

func (e *ImportEngine) newResult(provider providers.Provider, playlistID string) *ImportResult {
	return &ImportResult{
		RunID:      shared.GenerateID(),
		Source:     provider.Name(),
		PlaylistID: playlistID,
		DryRun:     e.opts.DryRun,
		StartedAt:  time.Now(),
	}
}

func (e *ImportEngine) finish(result *ImportResult) *ImportResult {
	result.FinishedAt = time.Now()
	return result
}

// record counts the run by outcome.
func (e *ImportEngine) record(result *ImportResult, err error) {
	status := metrics.Status(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = metrics.StatusCancelled
	}
	metrics.ImportRunsTotal.WithLabelValues(result.Source, status).Inc()
	metrics.ImportRunDuration.WithLabelValues(result.Source).Observe(time.Since(result.StartedAt).Seconds())
}

// gather reads the source and records its queries and extraction failures.
func (e *ImportEngine) gather(ctx context.Context, progress chan<- ProgressUpdate, provider providers.Provider, result *ImportResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.sendProgress(progress, gatherUpdate(provider.Name()))
	queries, failures, err := provider.Queries(ctx)
	if err != nil {
		if shared.IsFatalSource(err) {
			return fmt.Errorf("failed to read %s source: %w", provider.Name(), err)
		}
		return err
	}

	result.Queries = make([]QueryResult, len(queries))
	for i, q := range queries {
		result.Queries[i] = QueryResult{Query: q}
	}
	result.Extraction = failures
	result.ExtractionFailed = len(failures)
	metrics.ExtractionFailuresTotal.WithLabelValues(provider.Name()).Add(float64(len(failures)))

	for _, f := range failures {
		e.logger.Debug("skipped source entry", "index", f.Index, "raw", f.Raw, "reason", f.Reason)
	}
	e.sendProgress(progress, queriesBuiltUpdate(len(queries), len(failures)))
	return nil
}
