// Package config resolves the immutable AgentConfig for a run from process
// environment, the persisted credentials file, an optional .env file, and
// command-line overrides.
package config

import (
	"strings"
	"time"
)

// Defaults applied when neither the environment nor an override supplies a value.
const (
	DefaultModel                   = "n1-latest"
	DefaultBaseURL                 = "https://api.yutori.com/v1"
	DefaultViewportWidth           = 1280
	DefaultViewportHeight          = 800
	DefaultScreenshotFormat        = "jpeg"
	DefaultJPEGQuality             = 60
	DefaultScreenshotTimeoutMS     = 90_000
	DefaultMaxRequestBytes         = 9_000_000
	DefaultKeepRecentScreenshots   = 3
	DefaultEnableSufficiencyCheck  = true
	DefaultStopConfidenceThreshold = 0.78
)

// Settings is the raw, unnormalized input to NewAgentConfig.
type Settings struct {
	APIKey                  string
	CDPURL                  string
	BaseURL                 string
	Model                   string
	ViewportWidth           int
	ViewportHeight          int
	ScreenshotFormat        string
	JPEGQuality             int
	ScreenshotTimeoutMS     int
	MaxRequestBytes         int
	KeepRecentScreenshots   int
	EnableSufficiencyCheck  bool
	StopConfidenceThreshold float64
}

// DefaultSettings returns Settings populated with every default.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:                 DefaultBaseURL,
		Model:                   DefaultModel,
		ViewportWidth:           DefaultViewportWidth,
		ViewportHeight:          DefaultViewportHeight,
		ScreenshotFormat:        DefaultScreenshotFormat,
		JPEGQuality:             DefaultJPEGQuality,
		ScreenshotTimeoutMS:     DefaultScreenshotTimeoutMS,
		MaxRequestBytes:         DefaultMaxRequestBytes,
		KeepRecentScreenshots:   DefaultKeepRecentScreenshots,
		EnableSufficiencyCheck:  DefaultEnableSufficiencyCheck,
		StopConfidenceThreshold: DefaultStopConfidenceThreshold,
	}
}

// AgentConfig is the normalized configuration for one run.
// Fields are unexported so the value cannot change after construction.
type AgentConfig struct {
	apiKey                  string
	cdpURL                  string
	baseURL                 string
	model                   string
	viewportWidth           int
	viewportHeight          int
	screenshotFormat        string
	jpegQuality             int
	screenshotTimeout       time.Duration
	maxRequestBytes         int
	keepRecentScreenshots   int
	enableSufficiencyCheck  bool
	stopConfidenceThreshold float64
}

// NewAgentConfig normalizes s into an AgentConfig.
//
// Unknown screenshot formats fall back to jpeg, quality is clamped to 1..100,
// the screenshot timeout and recent-screenshot retention are at least 1, and
// the stop threshold is clamped to [0,1]. Zero-valued strings and dimensions
// take their defaults.
func NewAgentConfig(s Settings) AgentConfig {
	format := strings.ToLower(strings.TrimSpace(s.ScreenshotFormat))
	if format != "png" && format != "jpeg" {
		format = DefaultScreenshotFormat
	}

	threshold := s.StopConfidenceThreshold
	if threshold < 0 {
		threshold = 0
	} else if threshold > 1 {
		threshold = 1
	}

	return AgentConfig{
		apiKey:                  strings.TrimSpace(s.APIKey),
		cdpURL:                  strings.TrimSpace(s.CDPURL),
		baseURL:                 orDefault(strings.TrimSpace(s.BaseURL), DefaultBaseURL),
		model:                   orDefault(strings.TrimSpace(s.Model), DefaultModel),
		viewportWidth:           positiveOr(s.ViewportWidth, DefaultViewportWidth),
		viewportHeight:          positiveOr(s.ViewportHeight, DefaultViewportHeight),
		screenshotFormat:        format,
		jpegQuality:             clampInt(s.JPEGQuality, 1, 100),
		screenshotTimeout:       time.Duration(max(1, s.ScreenshotTimeoutMS)) * time.Millisecond,
		maxRequestBytes:         max(1, s.MaxRequestBytes),
		keepRecentScreenshots:   max(1, s.KeepRecentScreenshots),
		enableSufficiencyCheck:  s.EnableSufficiencyCheck,
		stopConfidenceThreshold: threshold,
	}
}

func (c AgentConfig) APIKey() string                   { return c.apiKey }
func (c AgentConfig) CDPURL() string                   { return c.cdpURL }
func (c AgentConfig) BaseURL() string                  { return c.baseURL }
func (c AgentConfig) Model() string                    { return c.model }
func (c AgentConfig) ViewportWidth() int               { return c.viewportWidth }
func (c AgentConfig) ViewportHeight() int              { return c.viewportHeight }
func (c AgentConfig) ScreenshotFormat() string         { return c.screenshotFormat }
func (c AgentConfig) JPEGQuality() int                 { return c.jpegQuality }
func (c AgentConfig) ScreenshotTimeout() time.Duration { return c.screenshotTimeout }
func (c AgentConfig) MaxRequestBytes() int             { return c.maxRequestBytes }
func (c AgentConfig) KeepRecentScreenshots() int       { return c.keepRecentScreenshots }
func (c AgentConfig) SufficiencyCheckEnabled() bool    { return c.enableSufficiencyCheck }
func (c AgentConfig) StopConfidenceThreshold() float64 { return c.stopConfidenceThreshold }

// ImageMIME returns the MIME type matching the screenshot format.
func (c AgentConfig) ImageMIME() string {
	if c.screenshotFormat == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}

// RetryRequestBytes is the tighter budget used after the endpoint rejects a
// request for exceeding its content length.
func (c AgentConfig) RetryRequestBytes() int {
	return max(c.maxRequestBytes-250_000, 1_000_000)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
