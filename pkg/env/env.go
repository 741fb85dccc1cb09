// Package env reads the few process settings that are needed before
// config.Load runs.
package env

import (
	"os"
	"strings"
)

// Lookup returns the first non-blank value among keys, in order.
func Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val, true
		}
	}
	return "", false
}

// Or is Lookup with a fallback.
func Or(fallback string, keys ...string) string {
	if val, ok := Lookup(keys...); ok {
		return val
	}
	return fallback
}
