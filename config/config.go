// Package config loads session controller settings from a YAML file,
// layering koanf's structs provider (for defaults) under its file
// provider (for overrides).
package config

import (
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// Config holds the tunables the session controller needs beyond the wire
// protocol itself: timeouts, retry behavior, and default streaming rate.
type Config struct {
	// RequestTimeoutMs is the per-request timeout in milliseconds, applied
	// to every transaction the controller correlates by id. Default: 2000.
	RequestTimeoutMs int `koanf:"requesttimeoutms"`

	// ConnectRetries is how many times Connect retries after a Timeout
	// before giving up. Default: 3.
	ConnectRetries int `koanf:"connectretries"`

	// AuthEnabled turns on the post-connect auth handshake. When false,
	// the controller never touches its injected cryptohook.Crypto and
	// Connect leaves it in Connected, so the AuthReady-only operations
	// (StartGraph, and through it streaming) are not reachable.
	// Default: false.
	AuthEnabled bool `koanf:"authenabled"`

	// DefaultStreamSps is a configured default streaming rate. StartGraph
	// takes its rate as an argument and does not read this field.
	// Default: 1000.
	DefaultStreamSps int `koanf:"defaultstreamsps"`

	// StreamPollIntervalMs paces PollSamples via a rate limiter so the
	// controller doesn't hammer the device faster than it can answer.
	// Default: 10.
	StreamPollIntervalMs int `koanf:"streampollintervalms"`
}

// Defaults returns the zero-value-safe configuration the controller falls
// back to when no file overrides it.
func Defaults() Config {
	return Config{
		RequestTimeoutMs:     2000,
		ConnectRetries:       3,
		AuthEnabled:          false,
		DefaultStreamSps:     1000,
		StreamPollIntervalMs: 10,
	}
}

// LoadYAML loads a Config from path, layering it over Defaults(). A
// missing file is not an error (the defaults stand), but a malformed one
// is.
func LoadYAML(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such") {
			return Config{}, err
		}
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
