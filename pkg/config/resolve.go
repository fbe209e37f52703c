package config

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Environment variable names read by Resolve.
const (
	EnvAPIKey                  = "YUTORI_API_KEY"
	EnvCDPURL                  = "BRD_CDP_URL"
	EnvModel                   = "N1_MODEL"
	EnvBaseURL                 = "N1_BASE_URL"
	EnvScreenshotFormat        = "N1_SCREENSHOT_FORMAT"
	EnvJPEGQuality             = "N1_JPEG_QUALITY"
	EnvScreenshotTimeoutMS     = "N1_SCREENSHOT_TIMEOUT_MS"
	EnvMaxRequestBytes         = "N1_MAX_REQUEST_BYTES"
	EnvKeepRecentScreenshots   = "N1_KEEP_RECENT_SCREENSHOTS"
	EnvEnableSufficiencyCheck  = "N1_ENABLE_SUFFICIENCY_CHECK"
	EnvStopConfidenceThreshold = "N1_STOP_CONFIDENCE_THRESHOLD"
)

// placeholders left behind by templates count as unset.
var placeholders = map[string]bool{
	"YOUR_API_KEY": true,
	"YOUR_CDP_URL": true,
}

// Overrides are explicit values from the command line. A nil field means
// "not given"; the environment or the default applies instead.
type Overrides struct {
	APIKey                  *string
	CDPURL                  *string
	Model                   *string
	ScreenshotFormat        *string
	JPEGQuality             *int
	ScreenshotTimeoutMS     *int
	MaxRequestBytes         *int
	KeepRecentScreenshots   *int
	EnableSufficiencyCheck  *bool
	StopConfidenceThreshold *float64
}

// Resolve builds the AgentConfig from the merged environment, the contents of
// the credentials file (may be nil), and command-line overrides.
//
// Precedence is override, then environment, then credentials file (required
// keys only), then defaults. A missing required key or a malformed tuning
// value returns a *ConfigurationError.
func Resolve(env map[string]string, credentials []byte, o Overrides) (AgentConfig, error) {
	creds := parseCredentials(credentials)
	s := DefaultSettings()

	var err error
	if s.APIKey, err = required(EnvAPIKey, o.APIKey, env, creds); err != nil {
		return AgentConfig{}, err
	}
	if s.CDPURL, err = required(EnvCDPURL, o.CDPURL, env, creds); err != nil {
		return AgentConfig{}, err
	}

	s.Model = stringValue(EnvModel, o.Model, env, s.Model)
	s.BaseURL = stringValue(EnvBaseURL, nil, env, s.BaseURL)
	s.ScreenshotFormat = strings.ToLower(stringValue(EnvScreenshotFormat, o.ScreenshotFormat, env, s.ScreenshotFormat))

	if s.JPEGQuality, err = intValue(EnvJPEGQuality, o.JPEGQuality, env, s.JPEGQuality); err != nil {
		return AgentConfig{}, err
	}
	if s.ScreenshotTimeoutMS, err = intValue(EnvScreenshotTimeoutMS, o.ScreenshotTimeoutMS, env, s.ScreenshotTimeoutMS); err != nil {
		return AgentConfig{}, err
	}
	if s.MaxRequestBytes, err = intValue(EnvMaxRequestBytes, o.MaxRequestBytes, env, s.MaxRequestBytes); err != nil {
		return AgentConfig{}, err
	}
	if s.KeepRecentScreenshots, err = intValue(EnvKeepRecentScreenshots, o.KeepRecentScreenshots, env, s.KeepRecentScreenshots); err != nil {
		return AgentConfig{}, err
	}
	if s.EnableSufficiencyCheck, err = boolValue(EnvEnableSufficiencyCheck, o.EnableSufficiencyCheck, env, s.EnableSufficiencyCheck); err != nil {
		return AgentConfig{}, err
	}
	if s.StopConfidenceThreshold, err = floatValue(EnvStopConfidenceThreshold, o.StopConfidenceThreshold, env, s.StopConfidenceThreshold); err != nil {
		return AgentConfig{}, err
	}

	return NewAgentConfig(s), nil
}

// ResolveBaseURL returns the model API base URL from env, or DefaultBaseURL.
func ResolveBaseURL(env map[string]string) string {
	return stringValue(EnvBaseURL, nil, env, DefaultBaseURL)
}

// parseCredentials reads the credentials JSON. A corrupt file is treated as empty.
func parseCredentials(data []byte) map[string]string {
	out := make(map[string]string)
	if len(data) == 0 {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
		}
	}
	return out
}

func usable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !placeholders[v]
}

func required(key string, override *string, env, creds map[string]string) (string, error) {
	if override != nil && usable(*override) {
		return strings.TrimSpace(*override), nil
	}
	if v := env[key]; usable(v) {
		return strings.TrimSpace(v), nil
	}
	if v := creds[key]; usable(v) {
		return v, nil
	}
	return "", missing(key)
}

// lookup returns the trimmed env value and whether it is non-blank.
func lookup(env map[string]string, key string) (string, bool) {
	v := strings.TrimSpace(env[key])
	return v, v != ""
}

func stringValue(key string, override *string, env map[string]string, def string) string {
	if override != nil && strings.TrimSpace(*override) != "" {
		return strings.TrimSpace(*override)
	}
	if v, ok := lookup(env, key); ok {
		return v
	}
	return def
}

func intValue(key string, override *int, env map[string]string, def int) (int, error) {
	if override != nil {
		return *override, nil
	}
	raw, ok := lookup(env, key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, malformed(key, "an integer", raw)
	}
	return n, nil
}

func floatValue(key string, override *float64, env map[string]string, def float64) (float64, error) {
	if override != nil {
		return *override, nil
	}
	raw, ok := lookup(env, key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, malformed(key, "a float", raw)
	}
	return f, nil
}

func boolValue(key string, override *bool, env map[string]string, def bool) (bool, error) {
	if override != nil {
		return *override, nil
	}
	raw, ok := lookup(env, key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, malformed(key, "a boolean string (true/false/1/0)", raw)
}
