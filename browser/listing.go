package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"jobscout/config"
	"jobscout/models"
	"jobscout/parser"
	"jobscout/search"
)

// LanguageDetector tags extracted content with its language
type LanguageDetector interface {
	Detect(text string) string
}

// Listing is the search result list of a session. It provides the listing
// view, the description extractor and the bookmark button to the traversal
// engine. Handles are invalidated on every reveal.
type Listing struct {
	page     *rod.Page
	sel      config.Selectors
	settle   time.Duration
	overlay  time.Duration
	detector LanguageDetector
	logger   *slog.Logger

	generation int
	open       models.ItemID // item whose details are shown in the right pane
}

func newListing(page *rod.Page, sel config.Selectors, cfg config.BrowserConfig, detector LanguageDetector, logger *slog.Logger) *Listing {
	return &Listing{
		page:     page,
		sel:      sel,
		settle:   cfg.SettleTimeout,
		overlay:  cfg.OverlayTimeout,
		detector: detector,
		logger:   logger,
	}
}

// Items returns the job cards currently in the list
func (l *Listing) Items(ctx context.Context) ([]models.ListingItem, error) {
	page := l.page.Context(ctx)
	container, err := page.Timeout(l.settle).Element(l.sel.ListContainer)
	if err != nil {
		return nil, fmt.Errorf("job list not found: %w", err)
	}
	cards, err := container.Elements(l.sel.ListItem)
	if err != nil {
		return nil, fmt.Errorf("failed to read job cards: %w", err)
	}

	items := make([]models.ListingItem, 0, len(cards))
	for _, card := range cards {
		id := l.cardID(card)
		if id == "" {
			// ad slots and separators carry no job id
			continue
		}
		items = append(items, models.ListingItem{ID: id, Handle: card, Generation: l.generation})
	}
	return items, nil
}

// RevealMore clicks the load more button under the list
func (l *Listing) RevealMore(ctx context.Context) (bool, error) {
	page := l.page.Context(ctx)
	has, btn, err := page.Has(l.sel.LoadMoreButton)
	if err != nil {
		return false, fmt.Errorf("failed to look up load more button: %w", err)
	}
	ready, err := loadMoreReady(has, func() (bool, error) { return btn.Visible() })
	if err != nil || !ready {
		return false, err
	}

	if err := btn.ScrollIntoView(); err != nil {
		return false, fmt.Errorf("failed to scroll to load more button: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("failed to click load more: %w", err)
	}
	l.generation++
	l.dismiss(page)

	if err := page.Timeout(l.settle).WaitStable(time.Second); err != nil {
		l.logger.Debug("job list did not settle after load more", "err", err)
	}
	return true, nil
}

// loadMoreReady reports whether the load more button can be clicked. A hidden
// or missing button ends the listing; a failed visibility check does not.
func loadMoreReady(has bool, visible func() (bool, error)) (bool, error) {
	if !has {
		return false, nil
	}
	ok, err := visible()
	if err != nil {
		return false, fmt.Errorf("failed to check load more button: %w", err)
	}
	return ok, nil
}

// DismissOverlay closes the job alert popup if present
func (l *Listing) DismissOverlay(ctx context.Context) bool {
	return l.dismiss(l.page.Context(ctx))
}

// ExtractText opens the job card and reads the full description
func (l *Listing) ExtractText(ctx context.Context, item models.ListingItem) (models.JobContent, error) {
	card, err := l.handle(item)
	if err != nil {
		return models.JobContent{}, err
	}
	page := l.page.Context(ctx)
	card = card.Context(ctx)

	if err := card.ScrollIntoView(); err != nil {
		return models.JobContent{}, fmt.Errorf("failed to scroll to job card: %w", err)
	}
	if err := card.Click(proto.InputMouseButtonLeft, 1); err != nil {
		// a popup may cover the card; close it and try once more
		if !l.dismiss(page) {
			return models.JobContent{}, fmt.Errorf("failed to open job card: %w", err)
		}
		if err := card.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return models.JobContent{}, fmt.Errorf("failed to open job card: %w", err)
		}
	}
	l.open = item.ID
	l.dismiss(page)

	if err := l.expandDescription(page); err != nil {
		l.logger.Debug("description not expanded", "id", item.ID, "err", err)
	}

	desc, err := page.Timeout(l.settle).Element(l.sel.Description)
	if err != nil {
		return models.JobContent{}, fmt.Errorf("description not found: %w", err)
	}
	html, err := desc.HTML()
	if err != nil {
		return models.JobContent{}, fmt.Errorf("failed to read description: %w", err)
	}
	text, err := parser.DescriptionText(html)
	if err != nil {
		return models.JobContent{}, err
	}

	content := models.JobContent{ID: item.ID, Text: text}
	if l.detector != nil {
		content.Language = l.detector.Detect(text)
	}
	return content, nil
}

// BookmarkState reports whether the open job is saved
func (l *Listing) BookmarkState(ctx context.Context, item models.ListingItem) (bool, error) {
	btn, err := l.bookmarkButton(ctx, item)
	if err != nil {
		return false, err
	}
	label, err := btn.Attribute("aria-label")
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark state: %w", err)
	}
	return isSaved(label, l.sel.BookmarkSavedTag), nil
}

// ToggleBookmark clicks the bookmark button of the open job
func (l *Listing) ToggleBookmark(ctx context.Context, item models.ListingItem) error {
	btn, err := l.bookmarkButton(ctx, item)
	if err != nil {
		return err
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click bookmark: %w", err)
	}
	l.dismiss(l.page.Context(ctx))
	return nil
}

func (l *Listing) bookmarkButton(ctx context.Context, item models.ListingItem) (*rod.Element, error) {
	if item.ID != l.open {
		return nil, fmt.Errorf("job %s is not open", item.ID)
	}
	btn, err := l.page.Context(ctx).Timeout(l.settle).Element(l.sel.BookmarkButton)
	if err != nil {
		return nil, fmt.Errorf("bookmark button not found: %w", err)
	}
	return btn, nil
}

func (l *Listing) handle(item models.ListingItem) (*rod.Element, error) {
	if item.Generation != l.generation {
		return nil, models.ErrStaleItem
	}
	card, ok := item.Handle.(*rod.Element)
	if !ok || card == nil {
		return nil, errors.New("listing item has no element handle")
	}
	return card, nil
}

func (l *Listing) expandDescription(page *rod.Page) error {
	btn, err := page.Timeout(l.overlay).Element(l.sel.ShowMoreButton)
	if err != nil {
		return err
	}
	expanded, err := btn.Attribute("aria-expanded")
	if err != nil {
		return err
	}
	if expanded != nil && *expanded == "true" {
		return nil
	}
	return btn.Click(proto.InputMouseButtonLeft, 1)
}

func (l *Listing) cardID(card *rod.Element) models.ItemID {
	attr, err := card.Attribute(l.sel.ItemIDAttribute)
	if err == nil && attr != nil && *attr != "" {
		return models.ItemID(*attr)
	}
	links, err := card.Elements("a[href]")
	if err != nil {
		return ""
	}
	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == nil {
			continue
		}
		if id := search.JobIDFromURL(*href); id != "" {
			return models.ItemID(id)
		}
	}
	return ""
}

func (l *Listing) dismiss(page *rod.Page) bool {
	return dismissOverlay(page, l.sel.OverlayClose, l.overlay)
}

// isSaved reads the bookmark button's aria-label
func isSaved(label *string, savedTag string) bool {
	return label != nil && strings.EqualFold(strings.TrimSpace(*label), savedTag)
}
