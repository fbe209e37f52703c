package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the set of driver primitives the dispatcher and agent loop use.
// Coordinates are viewport pixels.
type Page interface {
	SetViewport(vp Viewport) error
	Goto(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	Reload(ctx context.Context) error
	URL() string
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)

	Click(x, y float64, opts ClickOptions) error
	DoubleClick(x, y float64) error
	Move(x, y float64) error
	MouseDown() error
	MouseUp() error
	Wheel(dx, dy float64) error

	Press(key string) error
	Type(text string) error

	Wait(ctx context.Context, d time.Duration) error
}

// playwrightPage adapts a playwright.Page to Page.
// Playwright calls do not accept a context, so cancellation is checked
// before each blocking navigation or capture.
type playwrightPage struct {
	page playwright.Page
}

// NewPage wraps a playwright page.
func NewPage(page playwright.Page) Page {
	return &playwrightPage{page: page}
}

func (p *playwrightPage) SetViewport(vp Viewport) error {
	if err := p.page.SetViewportSize(vp.Width, vp.Height); err != nil {
		return fmt.Errorf("set viewport failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("go back failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shotOpts := playwright.PageScreenshotOptions{Type: playwright.ScreenshotTypePng}
	if opts.Format == "jpeg" {
		shotOpts.Type = playwright.ScreenshotTypeJpeg
		shotOpts.Quality = playwright.Int(opts.Quality)
	}
	if opts.Timeout > 0 {
		shotOpts.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}

	data, err := p.page.Screenshot(shotOpts)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (p *playwrightPage) Click(x, y float64, opts ClickOptions) error {
	clickOpts := playwright.MouseClickOptions{}
	if opts.Button == ButtonRight {
		clickOpts.Button = playwright.MouseButtonRight
	}
	if opts.ClickCount > 1 {
		clickOpts.ClickCount = playwright.Int(opts.ClickCount)
	}
	return p.page.Mouse().Click(x, y, clickOpts)
}

func (p *playwrightPage) DoubleClick(x, y float64) error {
	return p.page.Mouse().Dblclick(x, y)
}

func (p *playwrightPage) Move(x, y float64) error {
	return p.page.Mouse().Move(x, y)
}

func (p *playwrightPage) MouseDown() error {
	return p.page.Mouse().Down()
}

func (p *playwrightPage) MouseUp() error {
	return p.page.Mouse().Up()
}

func (p *playwrightPage) Wheel(dx, dy float64) error {
	return p.page.Mouse().Wheel(dx, dy)
}

func (p *playwrightPage) Press(key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *playwrightPage) Type(text string) error {
	return p.page.Keyboard().Type(text)
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
