// Package dispatch performs the bookmark side effect for accepted jobs.
package dispatch

import (
	"context"
	"log/slog"

	"jobscout/models"
)

// BookmarkSurface reads and toggles the remote saved state of a listing item
type BookmarkSurface interface {
	BookmarkState(ctx context.Context, item models.ListingItem) (saved bool, err error)
	ToggleBookmark(ctx context.Context, item models.ListingItem) error
}

// Dispatcher bookmarks items idempotently
type Dispatcher struct {
	surface BookmarkSurface
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over surface
func NewDispatcher(surface BookmarkSurface, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{surface: surface, logger: logger}
}

// Bookmark saves item unless it is already saved. Errors from the surface
// are logged and reported as models.BookmarkFailed.
func (d *Dispatcher) Bookmark(ctx context.Context, item models.ListingItem) models.BookmarkResult {
	saved, err := d.surface.BookmarkState(ctx, item)
	if err != nil {
		d.logger.Warn("failed to read bookmark state", "id", item.ID, "err", err)
		return models.BookmarkFailed
	}
	if saved {
		d.logger.Info("job already saved", "id", item.ID)
		return models.BookmarkAlreadySaved
	}

	if err := d.surface.ToggleBookmark(ctx, item); err != nil {
		d.logger.Warn("failed to bookmark job", "id", item.ID, "err", err)
		return models.BookmarkFailed
	}
	d.logger.Info("job saved", "id", item.ID)
	return models.BookmarkSaved
}
