// Package labs gates experimental features behind tiered flags.
//
// Flags come in three fixed tiers. GA flags have shipped and always read
// enabled. Beta flags follow their stored value in every environment. Alpha
// flags follow their stored value only when developer experiments are
// switched on or the server runs in development or testing; elsewhere they
// read as absent. Flag state lives in the labs setting as a JSON object and
// is read through the settings cache.
package labs

import (
	"encoding/json"
	"fmt"
)

// Flag tiers.
const (
	TierGA    = "GA"
	TierBeta  = "beta"
	TierAlpha = "alpha"
)

// GAFlags have shipped to everyone and always read enabled.
var GAFlags = []string{
	"lazyLoadImages",
	"outboundLinkTagging",
}

// BetaFlags are user-facing experiments honored in every environment.
var BetaFlags = []string{
	"search",
	"comments",
	"collections",
	"i18n",
}

// AlphaFlags are in-progress experiments, hidden outside development and
// testing unless developer experiments are enabled.
var AlphaFlags = []string{
	"urlCache",
	"nestedPages",
}

// TierOf returns the tier of key, or "" for unknown flags.
func TierOf(key string) string {
	for _, k := range GAFlags {
		if k == key {
			return TierGA
		}
	}
	for _, k := range BetaFlags {
		if k == key {
			return TierBeta
		}
	}
	for _, k := range AlphaFlags {
		if k == key {
			return TierAlpha
		}
	}
	return ""
}

// WritableKeys returns the flags whose stored value may be edited: the
// alpha and beta tiers. GA flags are never persisted.
func WritableKeys() []string {
	keys := make([]string, 0, len(AlphaFlags)+len(BetaFlags))
	keys = append(keys, AlphaFlags...)
	keys = append(keys, BetaFlags...)
	return keys
}

// FilterWritable parses a labs JSON object and strips every key outside the
// writable allowlist, returning the filtered object re-marshalled. Values
// must be booleans.
func FilterWritable(raw string) (string, error) {
	var flags map[string]bool
	if err := json.Unmarshal([]byte(raw), &flags); err != nil {
		return "", fmt.Errorf("labs must be a JSON object of booleans: %w", err)
	}

	filtered := make(map[string]bool, len(flags))
	for key, value := range flags {
		switch TierOf(key) {
		case TierAlpha, TierBeta:
			filtered[key] = value
		}
	}

	out, err := json.Marshal(filtered)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
