// Package config provides DriverConfig, the small bag of client-side
// knobs spec.md §2 keeps out of the core connection (user agent string,
// target address, whether to expect an encrypted channel, handshake
// timeout), loadable from the environment, a YAML file, or in-process
// defaults.
package config

import (
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// DriverConfig holds the settings a caller supplies to Connect. Nothing
// in this package parses URLs, negotiates TLS, or enforces auth policy;
// it only carries values those layers need.
type DriverConfig struct {
	UserAgent        string        `yaml:"userAgent"`
	Address          string        `yaml:"address"`
	Encrypted        bool          `yaml:"encrypted"`
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`

	// Logger receives connection lifecycle lines (handshake outcome,
	// fatal errors, failure episodes). Nil discards them.
	Logger *log.Logger `yaml:"-"`
}

const defaultUserAgent = "nornic-bolt/0.1"

func defaultConfig() *DriverConfig {
	return &DriverConfig{
		UserAgent:        defaultUserAgent,
		HandshakeTimeout: 5 * time.Second,
	}
}

// Default returns a DriverConfig with conservative built-in values and
// no address set; callers that only need a user agent and timeout
// policy, with the address supplied separately to Connect, can use this
// directly.
func Default() *DriverConfig {
	cfg := *defaultConfig()
	return &cfg
}

// startup is the config resolved from the environment once at process
// start, read via an atomic.Value so concurrent readers never race with
// the one-time seed in init. Current returns it; FromEnv re-resolves
// live, for callers that need to observe a changed environment without
// restarting.
var startup atomic.Value

func init() {
	startup.Store(loadFromEnv())
}

// Current returns the config resolved from the environment at process
// start.
func Current() *DriverConfig {
	cfg := *(startup.Load().(*DriverConfig))
	return &cfg
}

func loadFromEnv() *DriverConfig {
	cfg := defaultConfig()
	if v := os.Getenv("NORNIC_BOLT_ADDRESS"); v != "" {
		cfg.Address = v
	}
	if v := os.Getenv("NORNIC_BOLT_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("NORNIC_BOLT_ENCRYPTED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Encrypted = b
		}
		// An unparseable value is ignored rather than rejected: env-var
		// config must never fail a process at startup over one bad flag.
	}
	if v := os.Getenv("NORNIC_BOLT_HANDSHAKE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HandshakeTimeout = d
		}
	}
	return cfg
}

// FromEnv resolves a DriverConfig live from the NORNIC_BOLT_* environment
// variables, falling back to Default's values for anything unset.
func FromEnv() *DriverConfig {
	return loadFromEnv()
}

// FromFile layers YAML config at path over the environment-derived
// config: fields present in the file win, fields absent from it keep
// their env/default value.
func FromFile(path string) (*DriverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := FromEnv()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
