package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDotEnvPath is the .env file read from the working directory.
const DefaultDotEnvPath = ".env"

// LoadDotEnv reads KEY=VALUE pairs from a .env file. A missing file yields
// an empty map. Keys are returned upper-cased.
func LoadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		path = DefaultDotEnvPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := make(map[string]string, len(v.AllKeys()))
	for _, k := range v.AllKeys() {
		out[strings.ToUpper(k)] = v.GetString(k)
	}
	return out, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// MergeEnv layers lower-priority sources under the process environment.
// Each layer only fills keys that no earlier source set, so variables
// already in the process are never replaced.
func MergeEnv(process map[string]string, layers ...map[string]string) map[string]string {
	out := make(map[string]string, len(process))
	for k, v := range process {
		out[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}

// CredentialsEnv returns the required keys found in a credentials file as
// an env layer for MergeEnv. Blank and placeholder values are skipped.
func CredentialsEnv(credentials []byte) map[string]string {
	out := make(map[string]string)
	for k, v := range parseCredentials(credentials) {
		if (k == EnvAPIKey || k == EnvCDPURL) && usable(v) {
			out[k] = v
		}
	}
	return out
}
