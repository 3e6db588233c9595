// Package batch runs a list of queries through the evaluator and prints
// the results in input order.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/tracing"
)

// Evaluator is satisfied by *query.Evaluator.
type Evaluator interface {
	Run(ctx context.Context, q string) (*query.Result, error)
}

// EventSink receives one event per evaluated query.
type EventSink interface {
	Track(ev analytics.QueryEvent)
}

// Summary counts how the queries of a batch ended.
type Summary struct {
	Total     int
	Succeeded int
	Malformed int
	Failed    int
	Hits      int
}

type Runner struct {
	eval        Evaluator
	out         io.Writer
	concurrency int
	timeout     time.Duration
	jsonOutput  bool
	events      EventSink
	metrics     *metrics.Metrics
}

type Option func(*Runner)

// WithConcurrency evaluates up to n queries at once. Output order is
// unaffected.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithQueryTimeout bounds each query's evaluation.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithJSON writes one JSON object per query instead of the text format.
func WithJSON(enabled bool) Option {
	return func(r *Runner) { r.jsonOutput = enabled }
}

func WithEvents(sink EventSink) Option {
	return func(r *Runner) { r.events = sink }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func NewRunner(eval Evaluator, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		eval:        eval,
		out:         out,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type outcome struct {
	query   string
	result  *query.Result
	err     error
	elapsed time.Duration
}

type jsonRecord struct {
	Query string      `json:"query"`
	Terms []string    `json:"terms"`
	Hits  []query.Hit `json:"hits"`
	Error string      `json:"error,omitempty"`
}

// Run evaluates queries and writes their results in input order. A query
// that fails is reported and skipped. Run returns ErrQueriesFailed when any
// query failed, the context error when interrupted, and a write error if
// output cannot be written.
func (r *Runner) Run(ctx context.Context, queries []string) (Summary, error) {
	log := logger.FromContext(ctx).With("component", "batch-runner")
	summary := Summary{Total: len(queries)}

	results := make([]outcome, len(queries))
	ready := make([]chan struct{}, len(queries))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	var launch sync.WaitGroup
	defer func() {
		launch.Wait()
		g.Wait()
	}()
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	launch.Add(1)
	go func() {
		defer launch.Done()
		for i, q := range queries {
			g.Go(func() error {
				results[i] = r.evaluate(runCtx, q)
				close(ready[i])
				return nil
			})
		}
	}()

	for i := range queries {
		<-ready[i]
		res := results[i]
		if errors.Is(res.err, context.Canceled) && ctx.Err() != nil {
			log.Warn("batch interrupted", "completed", i, "total", len(queries))
			return summary, ctx.Err()
		}

		if err := r.write(res); err != nil {
			return summary, fmt.Errorf("writing results: %w", err)
		}

		switch {
		case res.err == nil:
			summary.Succeeded++
			summary.Hits += len(res.result.Hits)
		case apperrors.IsMalformedQuery(res.err):
			summary.Malformed++
			log.Warn("skipping malformed query", "query", res.query, "error", res.err)
		default:
			summary.Failed++
			log.Error("query failed", "query", res.query, "error", res.err)
		}
	}

	log.Info("batch complete",
		"queries", summary.Total,
		"succeeded", summary.Succeeded,
		"malformed", summary.Malformed,
		"failed", summary.Failed,
		"hits", summary.Hits,
	)
	if summary.Malformed+summary.Failed > 0 {
		return summary, apperrors.Newf(apperrors.ErrQueriesFailed, "%d of %d queries failed", summary.Malformed+summary.Failed, summary.Total)
	}
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, q string) outcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx, span := tracing.Start(ctx, "query", logger.RunID(ctx))
	span.Set("query", q)
	start := time.Now()
	res, err := r.eval.Run(ctx, q)
	span.End()
	out := outcome{query: q, result: res, err: err, elapsed: time.Since(start)}
	span.Set("outcome", string(classify(out)))
	span.Log(ctx, logger.FromContext(ctx))
	r.record(ctx, out)
	return out
}

func classify(o outcome) analytics.Outcome {
	switch {
	case o.err == nil && len(o.result.Hits) == 0:
		return analytics.OutcomeEmpty
	case o.err == nil:
		return analytics.OutcomeOK
	case apperrors.IsMalformedQuery(o.err):
		return analytics.OutcomeMalformed
	case apperrors.IsRetrieval(o.err):
		return analytics.OutcomeRetrieval
	default:
		return analytics.OutcomeError
	}
}

func (r *Runner) record(ctx context.Context, o outcome) {
	kind := classify(o)
	hits := 0
	if o.result != nil {
		hits = len(o.result.Hits)
	}
	if r.metrics != nil {
		r.metrics.QueriesTotal.WithLabelValues(string(kind)).Inc()
		r.metrics.QueryLatency.WithLabelValues(string(kind)).Observe(o.elapsed.Seconds())
		if o.err == nil {
			r.metrics.QueryResultsCount.Observe(float64(hits))
		}
	}
	if r.events != nil {
		ev := analytics.QueryEvent{
			RunID:     logger.RunID(ctx),
			Query:     o.query,
			Terms:     query.Terms(o.query),
			Hits:      hits,
			LatencyMs: o.elapsed.Milliseconds(),
			Outcome:   kind,
			Timestamp: time.Now().UTC(),
		}
		if o.err != nil {
			ev.Error = o.err.Error()
		}
		r.events.Track(ev)
	}
}

func (r *Runner) write(o outcome) error {
	if r.jsonOutput {
		rec := jsonRecord{Query: o.query, Terms: query.Terms(o.query), Hits: []query.Hit{}}
		if o.err != nil {
			rec.Error = o.err.Error()
		} else {
			rec.Hits = o.result.Hits
		}
		return json.NewEncoder(r.out).Encode(rec)
	}

	if _, err := fmt.Fprintf(r.out, "Query: %s\n", o.query); err != nil {
		return err
	}
	if o.err == nil {
		for _, hit := range o.result.Hits {
			if _, err := fmt.Fprintf(r.out, "%d\t%s\n", hit.DocID, hit.Snippet); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(r.out)
	return err
}
