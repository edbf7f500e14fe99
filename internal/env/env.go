// Package env contains functions that retrieve configuration from the
// environment
package env

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetenvFS retrieves the value of the environment variable named by the key.
// If the variable is unset, but the same variable ending in `_FILE` is set, the
// referenced file (resolved from the given filesystem) will be read into the
// value. Otherwise the provided default (or an empty string) is returned.
func GetenvFS(fsys fs.FS, key string, def ...string) string {
	val := getenvFile(fsys, key)
	if val == "" && len(def) > 0 {
		return def[0]
	}

	return val
}

// DurationFS is GetenvFS for durations. Bare integers are read as
// milliseconds, anything else must be accepted by time.ParseDuration. An unset
// variable returns def.
func DurationFS(fsys fs.FS, key string, def time.Duration) (time.Duration, error) {
	val := getenvFile(fsys, key)
	if val == "" {
		return def, nil
	}

	if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return def, fmt.Errorf("invalid duration in %s: %w", key, err)
	}

	return d, nil
}

// BoolFS is GetenvFS for booleans, as parsed by strconv.ParseBool. An unset
// variable returns def.
func BoolFS(fsys fs.FS, key string, def bool) (bool, error) {
	val := getenvFile(fsys, key)
	if val == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return def, fmt.Errorf("invalid boolean in %s: %w", key, err)
	}

	return b, nil
}

func getenvFile(fsys fs.FS, key string) string {
	val := os.Getenv(key)
	if val != "" {
		return val
	}

	p := os.Getenv(key + "_FILE")
	if p != "" {
		p = strings.TrimPrefix(p, "/")

		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return ""
		}

		return strings.TrimSpace(string(b))
	}

	return ""
}
