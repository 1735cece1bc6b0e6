package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	goinput "github.com/tcnksm/go-input"

	"jobscout/config"
	"jobscout/search"
)

// Session is one logged-in tab on the job site
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     *config.Config
	logger  *slog.Logger
}

// NewSession opens a blank tab in b
func NewSession(b *rod.Browser, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &Session{browser: b, page: page, cfg: cfg, logger: logger}, nil
}

// Open navigates to the search landing page
func (s *Session) Open(ctx context.Context) error {
	target, err := search.BuildURL(s.cfg.Site.BaseURL, s.cfg.Site.SearchPath, s.cfg.Site.Keyword, s.cfg.Site.Location)
	if err != nil {
		return err
	}
	page := s.page.Context(ctx)
	if err := page.Navigate(target); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to load %s: %w", target, err)
	}
	s.logger.Info("opened search page", "url", target)
	return nil
}

// Login signs in with email and password. The site asks for them on two
// consecutive screens.
func (s *Session) Login(ctx context.Context, email, password string) error {
	sel := s.cfg.Selectors
	page := s.page.Context(ctx)

	signIn, err := page.Timeout(s.cfg.Browser.SettleTimeout).Element(sel.SignInButton)
	if err != nil {
		return fmt.Errorf("sign in button not found: %w", err)
	}
	if err := signIn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click sign in: %w", err)
	}

	if err := s.submit(page, sel.EmailInput, email); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}
	s.dismissOverlay(ctx)
	if err := s.submit(page, sel.PasswordInput, password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	s.dismissOverlay(ctx)

	s.logger.Info("logged in")
	return nil
}

// Search fills the search form and optionally enables the Easy Apply filter
func (s *Session) Search(ctx context.Context, keyword, location string, easyApplyOnly bool) error {
	sel := s.cfg.Selectors
	page := s.page.Context(ctx)

	if err := s.replace(page, sel.KeywordInput, keyword); err != nil {
		return fmt.Errorf("failed to enter keyword: %w", err)
	}
	s.dismissOverlay(ctx)
	if err := s.replace(page, sel.LocationInput, location); err != nil {
		return fmt.Errorf("failed to enter location: %w", err)
	}
	s.dismissOverlay(ctx)

	if easyApplyOnly {
		btn, err := page.Timeout(s.cfg.Browser.SettleTimeout).ElementR("button", sel.EasyApplyText)
		if err != nil {
			return fmt.Errorf("%q filter not found: %w", sel.EasyApplyText, err)
		}
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("failed to click %q: %w", sel.EasyApplyText, err)
		}
	}

	if err := page.Timeout(s.cfg.Browser.SettleTimeout).WaitStable(time.Second); err != nil {
		s.logger.Debug("search results did not settle", "err", err)
	}
	s.logger.Info("search submitted", "keyword", keyword, "location", location, "easy_apply_only", easyApplyOnly)
	return nil
}

// WaitForOperator blocks until the operator confirms on in, giving them
// time to solve captchas or adjust filters by hand
func (s *Session) WaitForOperator(ctx context.Context, in io.Reader, out io.Writer) error {
	ui := &goinput.UI{Reader: in, Writer: out}
	done := make(chan error, 1)
	go func() {
		_, err := ui.Ask("Login and search done. Press Enter to continue", &goinput.Options{
			Default:     "continue",
			HideDefault: true,
			HideOrder:   true,
		})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, goinput.ErrEmpty) {
			return fmt.Errorf("failed to read operator input: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Listing returns the view over the current search results
func (s *Session) Listing(detector LanguageDetector) *Listing {
	return newListing(s.page, s.cfg.Selectors, s.cfg.Browser, detector, s.logger)
}

// Close closes the tab and the browser
func (s *Session) Close() error {
	if err := s.page.Close(); err != nil {
		s.logger.Debug("failed to close page", "err", err)
	}
	return s.browser.Close()
}

func (s *Session) submit(page *rod.Page, selector, text string) error {
	el, err := page.Timeout(s.cfg.Browser.SettleTimeout).Element(selector)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return err
	}
	return el.Type(input.Enter)
}

func (s *Session) replace(page *rod.Page, selector, text string) error {
	el, err := page.Timeout(s.cfg.Browser.SettleTimeout).Element(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return err
	}
	return el.Type(input.Enter)
}

func (s *Session) dismissOverlay(ctx context.Context) bool {
	return dismissOverlay(s.page.Context(ctx), s.cfg.Selectors.OverlayClose, s.cfg.Browser.OverlayTimeout)
}

// dismissOverlay closes the job alert popup if it shows up within timeout
func dismissOverlay(page *rod.Page, selector string, timeout time.Duration) bool {
	btn, err := page.Timeout(timeout).Element(selector)
	if err != nil {
		return false
	}
	if visible, err := btn.Visible(); err != nil || !visible {
		return false
	}
	return btn.Click(proto.InputMouseButtonLeft, 1) == nil
}
