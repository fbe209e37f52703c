// Package browsertest provides an in-memory browser.Page that records every
// primitive it receives.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/n1browse/pkg/tools/browser"
)

// Call is one recorded primitive, e.g. "click 640,400 left x1".
type Call string

// Page is a fake browser.Page. The zero value is usable.
type Page struct {
	mu    sync.Mutex
	calls []Call

	// CurrentURL is returned by URL and updated by Goto.
	CurrentURL string

	// ScreenshotData is returned by Screenshot; defaults to a few fake bytes.
	ScreenshotData []byte

	// FailOn makes the named primitive ("click", "goto", "screenshot", ...) fail.
	FailOn map[string]error

	// Viewports records every SetViewport call.
	Viewports []browser.Viewport

	// Closed is set by Close on a Handle.
	Closed bool
}

var _ browser.Page = (*Page)(nil)

// Calls returns a copy of the recorded primitives.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Count returns how many recorded primitives start with verb.
func (p *Page) Count(verb string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.calls {
		if len(c) >= len(verb) && string(c[:len(verb)]) == verb {
			n++
		}
	}
	return n
}

func (p *Page) record(verb, format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.FailOn[verb]; ok {
		return err
	}
	entry := verb
	if format != "" {
		entry += " " + fmt.Sprintf(format, args...)
	}
	p.calls = append(p.calls, Call(entry))
	return nil
}

func (p *Page) SetViewport(vp browser.Viewport) error {
	p.mu.Lock()
	p.Viewports = append(p.Viewports, vp)
	p.mu.Unlock()
	return p.record("viewport", "%dx%d", vp.Width, vp.Height)
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.record("goto", "%s", url); err != nil {
		return err
	}
	p.mu.Lock()
	p.CurrentURL = url
	p.mu.Unlock()
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.record("back", "")
}

func (p *Page) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.record("reload", "")
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL
}

func (p *Page) Screenshot(ctx context.Context, opts browser.ScreenshotOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.record("screenshot", "%s", opts.Format); err != nil {
		return nil, err
	}
	if p.ScreenshotData != nil {
		return p.ScreenshotData, nil
	}
	return []byte("fake-image"), nil
}

func (p *Page) Click(x, y float64, opts browser.ClickOptions) error {
	button := opts.Button
	if button == "" {
		button = browser.ButtonLeft
	}
	count := opts.ClickCount
	if count == 0 {
		count = 1
	}
	return p.record("click", "%g,%g %s x%d", x, y, button, count)
}

func (p *Page) DoubleClick(x, y float64) error {
	return p.record("dblclick", "%g,%g", x, y)
}

func (p *Page) Move(x, y float64) error {
	return p.record("move", "%g,%g", x, y)
}

func (p *Page) MouseDown() error {
	return p.record("down", "")
}

func (p *Page) MouseUp() error {
	return p.record("up", "")
}

func (p *Page) Wheel(dx, dy float64) error {
	return p.record("wheel", "%g,%g", dx, dy)
}

func (p *Page) Press(key string) error {
	return p.record("press", "%s", key)
}

func (p *Page) Type(text string) error {
	return p.record("type", "%s", text)
}

// Wait records the duration without sleeping.
func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.record("wait", "%s", d)
}

// Handle wraps a Page as a browser.Handle.
type Handle struct {
	P *Page
}

func (h *Handle) Page() browser.Page { return h.P }

func (h *Handle) Close() error {
	h.P.mu.Lock()
	defer h.P.mu.Unlock()
	h.P.Closed = true
	return nil
}

// Connector hands out a fixed page, or Err if set.
type Connector struct {
	P   *Page
	Err error
}

func (c *Connector) Connect(ctx context.Context) (browser.Handle, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return &Handle{P: c.P}, nil
}
