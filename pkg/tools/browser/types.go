package browser

import "time"

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// MouseButton selects which button a click uses.
type MouseButton string

const (
	ButtonLeft  MouseButton = "left"
	ButtonRight MouseButton = "right"
)

// ClickOptions configures a pointer click at pixel coordinates.
type ClickOptions struct {
	// Button defaults to left
	Button MouseButton

	// ClickCount is the number of clicks (0 or 1 for single, 2 double, 3 triple)
	ClickCount int
}

// ScreenshotOptions configures page capture.
type ScreenshotOptions struct {
	// Format is "png" or "jpeg"
	Format string

	// Quality applies to jpeg only (1..100)
	Quality int

	// Timeout bounds the capture; zero means the driver default
	Timeout time.Duration
}

// Default values for dispatcher operations
const (
	// WaitDuration is the fixed pause issued by the "wait" action
	WaitDuration = 800 * time.Millisecond

	// ScrollFraction is the share of the viewport one scroll unit moves
	ScrollFraction = 0.10

	// coordinateGrid is the side of the model's normalized coordinate square
	coordinateGrid = 1000
)
