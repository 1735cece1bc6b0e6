// Package traversal walks the lazily materialized job listing and drives each
// unseen item through extraction, classification and bookmarking.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobscout/models"
	"jobscout/state"
)

// ErrListingUnavailable is returned when the listing cannot be read even
// after retries, e.g. the list container is gone or the session was lost
var ErrListingUnavailable = errors.New("listing unavailable")

// ExtractionError is a per-item failure to read job content
type ExtractionError struct {
	ID  models.ItemID
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract content of %s: %v", e.ID, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ViewProvider exposes the items currently materialized in the listing
type ViewProvider interface {
	// Items returns the materialized sequence. Handles from earlier calls
	// become stale after RevealMore.
	Items(ctx context.Context) ([]models.ListingItem, error)
	// RevealMore asks the listing to load more items. It reports false when
	// there is nothing left to load.
	RevealMore(ctx context.Context) (bool, error)
	// DismissOverlay closes a transient popup if one is present
	DismissOverlay(ctx context.Context) bool
}

// ContentExtractor reads the description of one item
type ContentExtractor interface {
	ExtractText(ctx context.Context, item models.ListingItem) (models.JobContent, error)
}

// Classifier decides whether an item should be bookmarked
type Classifier interface {
	Classify(ctx context.Context, content models.JobContent) models.ClassificationOutcome
}

// Bookmarker performs the bookmark side effect
type Bookmarker interface {
	Bookmark(ctx context.Context, item models.ListingItem) models.BookmarkResult
}

// ResultJournal is the append-only outcome log
type ResultJournal interface {
	Append(outcome models.ClassificationOutcome) error
}

// OutcomeSink receives every committed outcome. Sink errors never stop a run.
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome models.ClassificationOutcome) error
}

// Options tunes an Engine
type Options struct {
	ViewRetries        int // attempts after the first failed listing read
	MaxEmptyReveals    int // reveals in a row that may add no items
	MaxItems           int // processed items before stopping, 0 means no limit
	RetryServiceErrors bool
	Sinks              []OutcomeSink
	Logger             *slog.Logger
}

// Engine is the listing traversal state machine
type Engine struct {
	view       ViewProvider
	extractor  ContentExtractor
	classifier Classifier
	bookmarker Bookmarker
	visited    state.VisitedStore
	journal    ResultJournal
	opts       Options
	logger     *slog.Logger
}

// NewEngine wires an engine from its collaborators
func NewEngine(view ViewProvider, extractor ContentExtractor, classifier Classifier, bookmarker Bookmarker, visited state.VisitedStore, journal ResultJournal, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		view:       view,
		extractor:  extractor,
		classifier: classifier,
		bookmarker: bookmarker,
		visited:    visited,
		journal:    journal,
		opts:       opts,
		logger:     logger,
	}
}

// Run traverses the listing until it is exhausted, MaxItems is reached, ctx
// is cancelled or the listing becomes unavailable. Cancellation is only
// observed between items. The returned summary always describes what was
// committed, also when err is non-nil.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	visited, reset, err := e.visited.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load visited set: %w", err)
	}
	if reset {
		e.logger.Warn("visited state was corrupt and has been reset")
	}
	e.logger.Info("starting traversal", "visited", len(visited))

	items, err := e.acquire(ctx)
	if err != nil {
		return e.stop(ctx, summary, err)
	}

	index := 0
	staleRetried := -1
	emptyReveals := 0

	for {
		if ctx.Err() != nil {
			summary.Interrupted = true
			summary.Reason = "interrupted"
			return summary, nil
		}
		if e.opts.MaxItems > 0 && summary.Processed >= e.opts.MaxItems {
			summary.Reason = "max items reached"
			return summary, nil
		}

		// Reloading: reveal more and re-acquire, keeping the cursor
		if index >= len(items) {
			more, err := retryView(ctx, e, "reveal more", func() (bool, error) {
				return e.view.RevealMore(ctx)
			})
			if err != nil {
				return e.stop(ctx, summary, err)
			}
			if !more {
				summary.Reason = "no more items"
				return summary, nil
			}

			before := len(items)
			items, err = e.acquire(ctx)
			if err != nil {
				return e.stop(ctx, summary, err)
			}
			if len(items) <= before {
				emptyReveals++
				if emptyReveals > e.opts.MaxEmptyReveals {
					summary.Reason = "reveal produced no new items"
					return summary, nil
				}
			} else {
				emptyReveals = 0
			}
			e.logger.Debug("listing reloaded", "materialized", len(items), "index", index)
			continue
		}

		// Scanning
		item := items[index]
		if visited.Has(item.ID) {
			summary.Seen++
			summary.Skipped++
			index++
			continue
		}

		itemCtx := context.WithoutCancel(ctx)
		content, err := e.extractor.ExtractText(itemCtx, item)
		if errors.Is(err, models.ErrStaleItem) && staleRetried != index {
			staleRetried = index
			e.logger.Debug("stale item handle, re-acquiring listing", "index", index, "id", item.ID)
			items, err = e.acquire(itemCtx)
			if err != nil {
				return e.stop(ctx, summary, err)
			}
			continue
		}
		summary.Seen++
		if err != nil {
			summary.ExtractionErrors++
			e.logger.Warn("skipping item", "index", index, "id", item.ID, "err", &ExtractionError{ID: item.ID, Err: err})
			index++
			continue
		}
		content.ID = item.ID

		if err := e.process(itemCtx, item, content, visited, &summary); err != nil {
			return summary, err
		}
		index++
	}
}

// process classifies one item and commits its outcome. A returned error is a
// persistence failure and ends the run.
func (e *Engine) process(ctx context.Context, item models.ListingItem, content models.JobContent, visited models.IDSet, summary *Summary) error {
	outcome := e.classifier.Classify(ctx, content)
	outcome.ID = item.ID

	if outcome.Failed() {
		summary.ServiceErrors++
		if e.opts.RetryServiceErrors {
			e.logger.Warn("reasoning service failed, leaving item for a later run", "id", item.ID, "err", outcome.ServiceError)
			return nil
		}
	}

	if outcome.FinalAction == models.ActionBookmarked {
		outcome.Bookmark = e.bookmarker.Bookmark(ctx, item)
		if outcome.Bookmark == models.BookmarkFailed {
			summary.DispatchFailures++
		} else {
			summary.Bookmarked++
		}
	}

	// visited first so a crash never leaves a journaled but unvisited id
	visited.Add(item.ID)
	if err := e.visited.Save(ctx, visited); err != nil {
		return fmt.Errorf("failed to persist visited set: %w", err)
	}
	if err := e.journal.Append(outcome); err != nil {
		return fmt.Errorf("failed to append outcome: %w", err)
	}
	summary.Processed++

	for _, sink := range e.opts.Sinks {
		if err := sink.RecordOutcome(ctx, outcome); err != nil {
			e.logger.Warn("outcome sink failed", "id", item.ID, "err", err)
		}
	}

	e.logger.Info("item processed",
		"id", item.ID,
		"action", outcome.FinalAction,
		"processed", summary.Processed,
		"bookmarked", summary.Bookmarked,
		"skipped", summary.Skipped,
	)
	return nil
}

func (e *Engine) acquire(ctx context.Context) ([]models.ListingItem, error) {
	return retryView(ctx, e, "read listing", func() ([]models.ListingItem, error) {
		return e.view.Items(ctx)
	})
}

// stop ends the run after a view error. An error caused by cancellation is
// an interruption, anything else is fatal.
func (e *Engine) stop(ctx context.Context, summary Summary, err error) (Summary, error) {
	if ctx.Err() != nil {
		summary.Interrupted = true
		summary.Reason = "interrupted"
		return summary, nil
	}
	summary.Reason = "listing unavailable"
	return summary, err
}

// retryView runs a view operation, dismissing overlays between attempts
func retryView[T any](ctx context.Context, e *Engine, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= e.opts.ViewRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err
		e.logger.Warn("view operation failed", "op", op, "attempt", attempt+1, "err", err)
		e.view.DismissOverlay(ctx)
	}
	return zero, fmt.Errorf("%w: %s: %v", ErrListingUnavailable, op, lastErr)
}
