// Package orchestrator fans a routing decision out across capability
// generators and collects a per-capability result. A capability's
// failure never cancels or blocks its siblings.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/router"
)

// ErrorKind classifies a capability failure.
type ErrorKind string

const (
	// ErrorValidation marks a schema failure at the capability boundary.
	// Validation failures are never retried.
	ErrorValidation ErrorKind = "validation"
	// ErrorGeneration marks a failure inside the generator.
	ErrorGeneration ErrorKind = "generation"
	// ErrorTimeout marks a capability that exceeded its deadline.
	ErrorTimeout ErrorKind = "timeout"
)

// CapabilityError is the error half of a per-capability result.
type CapabilityError struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Result is the outcome of one capability call: a document or an error,
// never both.
type Result struct {
	CapabilityID string               `json:"capability_id"`
	Document     *capability.Document `json:"document,omitempty"`
	Error        *CapabilityError     `json:"error,omitempty"`
}

// OK reports whether the capability produced a document.
func (r Result) OK() bool { return r.Document != nil }

// Aggregated is the fan-in of all capability results for one run.
type Aggregated struct {
	Results []Result `json:"results"`
	// Success is true iff at least one capability produced a document.
	Success bool `json:"success"`
	// Degraded is true iff some capabilities succeeded and others failed.
	Degraded bool `json:"degraded"`
}

// ProgressFunc is called after each capability finishes, successful or
// not.
type ProgressFunc func(done, total int, capabilityID string)

// Options bound a single orchestrator run.
type Options struct {
	MaxConcurrency    int
	CapabilityTimeout time.Duration
	// MaxRetries is the number of additional attempts after the first,
	// applied to generation and timeout failures only.
	MaxRetries   int
	RetryBackoff time.Duration
	OnProgress   ProgressFunc
}

// Orchestrator runs sub-tasks against their generators. It is stateless
// across runs and safe for concurrent use.
type Orchestrator struct {
	generators map[string]capability.Generator
	opts       Options
}

// New creates an orchestrator over the generator set.
func New(generators map[string]capability.Generator, opts Options) *Orchestrator {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.CapabilityTimeout <= 0 {
		opts.CapabilityTimeout = 2 * time.Minute
	}
	return &Orchestrator{generators: generators, opts: opts}
}

// Run executes every selection concurrently and blocks until all have
// returned or timed out. Cancelling ctx abandons outstanding calls; the
// caller must not persist anything from a cancelled run.
func (o *Orchestrator) Run(ctx context.Context, selections []router.Selection) *Aggregated {
	total := len(selections)
	agg := &Aggregated{}
	if total == 0 {
		return agg
	}

	sem := make(chan struct{}, o.opts.MaxConcurrency)
	results := make([]Result, total)
	var done int64
	var wg sync.WaitGroup

	for i, sel := range selections {
		// Checked before the semaphore select so a cancelled run never
		// dispatches further work.
		if err := ctx.Err(); err != nil {
			results[i] = Result{
				CapabilityID: sel.CapabilityID,
				Error:        &CapabilityError{Kind: ErrorGeneration, Detail: err.Error()},
			}
			o.progress(&done, total, sel.CapabilityID)
			continue
		}

		select {
		case <-ctx.Done():
			results[i] = Result{
				CapabilityID: sel.CapabilityID,
				Error:        &CapabilityError{Kind: ErrorGeneration, Detail: ctx.Err().Error()},
			}
			o.progress(&done, total, sel.CapabilityID)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, sel router.Selection) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = o.runOne(ctx, sel)
			o.progress(&done, total, sel.CapabilityID)
		}(i, sel)
	}
	wg.Wait()

	agg.Results = results
	var okCount, failCount int
	for _, r := range results {
		if r.OK() {
			okCount++
		} else {
			failCount++
		}
	}
	agg.Success = okCount > 0
	agg.Degraded = okCount > 0 && failCount > 0
	return agg
}

// runOne executes a single capability with its timeout and retry
// bounds. Validation failures short-circuit; generation and timeout
// failures retry with exponential backoff.
func (o *Orchestrator) runOne(ctx context.Context, sel router.Selection) Result {
	gen, ok := o.generators[sel.CapabilityID]
	if !ok {
		return Result{
			CapabilityID: sel.CapabilityID,
			Error:        &CapabilityError{Kind: ErrorValidation, Detail: "no generator registered"},
		}
	}

	if err := gen.Validate(sel.Task); err != nil {
		return Result{
			CapabilityID: sel.CapabilityID,
			Error:        &CapabilityError{Kind: ErrorValidation, Detail: err.Error()},
		}
	}

	var lastErr *CapabilityError
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.opts.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return Result{CapabilityID: sel.CapabilityID, Error: lastErr}
			case <-time.After(backoff):
			}
		}

		doc, capErr := o.attempt(ctx, gen, sel.Task)
		if capErr == nil {
			return Result{CapabilityID: sel.CapabilityID, Document: doc}
		}
		lastErr = capErr
		if capErr.Kind == ErrorValidation {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{CapabilityID: sel.CapabilityID, Error: lastErr}
}

// attempt is one bounded generator call.
func (o *Orchestrator) attempt(ctx context.Context, gen capability.Generator, task capability.SubTask) (*capability.Document, *CapabilityError) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CapabilityTimeout)
	defer cancel()

	doc, err := gen.Generate(callCtx, task)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, &CapabilityError{
			Kind:   ErrorTimeout,
			Detail: fmt.Sprintf("capability exceeded %s timeout", o.opts.CapabilityTimeout),
		}
	}
	return nil, &CapabilityError{Kind: ErrorGeneration, Detail: err.Error()}
}

func (o *Orchestrator) progress(done *int64, total int, capabilityID string) {
	count := atomic.AddInt64(done, 1)
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(int(count), total, capabilityID)
	}
}
