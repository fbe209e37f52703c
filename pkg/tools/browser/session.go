package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Handle is an open page plus the resources backing it.
type Handle interface {
	Page() Page
	Close() error
}

// Session is a page on a remote browser reached over CDP.
type Session struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    Page

	// CreatedAt is the timestamp when the session was connected
	CreatedAt time.Time

	// release runs after the browser is closed (stops the driver for
	// sessions that own one)
	release   func() error
	closeOnce sync.Once
	closeErr  error
}

// newSession picks the first existing context and page on the remote
// browser, creating either when the endpoint has none.
func newSession(b playwright.Browser) (*Session, error) {
	var bctx playwright.BrowserContext
	if contexts := b.Contexts(); len(contexts) > 0 {
		bctx = contexts[0]
	} else {
		created, err := b.NewContext()
		if err != nil {
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
		bctx = created
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		created, err := bctx.NewPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		page = created
	}

	return &Session{
		browser:   b,
		context:   bctx,
		page:      NewPage(page),
		CreatedAt: time.Now(),
	}, nil
}

// Page returns the page this session drives.
func (s *Session) Page() Page {
	return s.page
}

// Close disconnects from the remote browser. Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}
		if s.release != nil {
			if err := s.release(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Connector opens the page a run drives.
type Connector interface {
	Connect(ctx context.Context) (Handle, error)
}
