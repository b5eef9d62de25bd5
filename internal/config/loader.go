package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values applied by [applyDefaults].
const (
	DefaultListenAddr     = "127.0.0.1:7823"
	DefaultSampleRate     = 16000
	DefaultChannels       = 1
	DefaultTimeoutSeconds = 5
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. A missing file is not an error: the defaults describe a fully
// working local setup.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, Validate(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills unset fields with working local-daemon values.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Storage.Dir == "" && !cfg.Storage.InMemory {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Storage.Dir = filepath.Join(home, ".heardiary")
		}
	}
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture.SampleRate = DefaultSampleRate
	}
	if cfg.Capture.Channels == 0 {
		cfg.Capture.Channels = DefaultChannels
	}
	if cfg.Classifier.TimeoutSeconds == 0 {
		cfg.Classifier.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Export.Dir == "" && cfg.Storage.Dir != "" {
		cfg.Export.Dir = filepath.Join(cfg.Storage.Dir, "exports")
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Storage.Dir == "" && !cfg.Storage.InMemory {
		errs = append(errs, errors.New("storage.dir is required unless storage.in_memory is set"))
	}
	if cfg.Capture.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate %d is invalid; must be positive", cfg.Capture.SampleRate))
	}
	if cfg.Capture.Channels != 1 && cfg.Capture.Channels != 2 {
		errs = append(errs, fmt.Errorf("capture.channels %d is invalid; must be 1 (mono) or 2 (stereo)", cfg.Capture.Channels))
	}
	if cfg.Classifier.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("classifier.timeout_seconds %d is invalid; must not be negative", cfg.Classifier.TimeoutSeconds))
	}
	if cfg.Classifier.Endpoint != "" {
		if u, err := url.Parse(cfg.Classifier.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("classifier.endpoint %q is invalid; must be an http(s) URL", cfg.Classifier.Endpoint))
		}
	}

	return errors.Join(errs...)
}
