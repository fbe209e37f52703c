package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Launcher owns the playwright driver process and connects to remote browsers.
type Launcher struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	initialized bool
}

// NewLauncher creates a launcher. Initialize starts the driver.
func NewLauncher() *Launcher {
	return &Launcher{}
}

// runOptions keeps driver output away from the console.
func runOptions() *playwright.RunOptions {
	return &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
}

// InstallDriver downloads the playwright driver. Browsers are not installed
// because the agent always connects to a remote one.
func InstallDriver() error {
	opts := runOptions()
	opts.SkipInstallBrowsers = true
	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// Initialize starts the playwright driver. Safe to call more than once.
func (l *Launcher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	pw, err := playwright.Run(runOptions())
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Connect attaches to the browser at cdpURL and returns a session on its
// first page.
func (l *Launcher) Connect(ctx context.Context, cdpURL string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	pw := l.playwright
	ready := l.initialized
	l.mu.Unlock()

	if !ready {
		return nil, fmt.Errorf("launcher not initialized")
	}

	b, err := pw.Chromium.ConnectOverCDP(cdpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect over CDP: %w", err)
	}

	session, err := newSession(b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return session, nil
}

// Shutdown stops the playwright driver.
func (l *Launcher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized && l.playwright != nil {
		if err := l.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		l.initialized = false
		l.playwright = nil
	}
	return nil
}

// CDPConnector opens a fresh driver and CDP connection per run. Closing the
// returned handle releases both.
type CDPConnector struct {
	URL string
}

// NewCDPConnector returns a connector for the given CDP websocket URL.
func NewCDPConnector(cdpURL string) *CDPConnector {
	return &CDPConnector{URL: cdpURL}
}

// Connect starts the driver and attaches to the remote browser.
func (c *CDPConnector) Connect(ctx context.Context) (Handle, error) {
	launcher := NewLauncher()
	if err := launcher.Initialize(); err != nil {
		return nil, err
	}

	session, err := launcher.Connect(ctx, c.URL)
	if err != nil {
		_ = launcher.Shutdown()
		return nil, err
	}
	session.release = launcher.Shutdown
	return session, nil
}
