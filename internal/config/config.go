// Package config provides the configuration schema and loader for the
// HearDiary daemon.
package config

import "log/slog"

// LogLevel controls log verbosity for the daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto the slog level, defaulting to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for HearDiary.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Capture    CaptureConfig    `yaml:"capture"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Export     ExportConfig     `yaml:"export"`
}

// ServerConfig holds network and logging settings for the daemon.
type ServerConfig struct {
	// ListenAddr is the TCP address the API listens on. The daemon is meant
	// to serve a local front end, so the default binds loopback only.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// StorageConfig locates the keyed store holding entries and preferences.
type StorageConfig struct {
	// Dir is the data directory. Defaults to ~/.heardiary.
	Dir string `yaml:"dir"`

	// InMemory runs the store without disk persistence. Recordings are lost
	// on restart; intended for development and tests.
	InMemory bool `yaml:"in_memory"`
}

// CaptureConfig describes the recording format.
type CaptureConfig struct {
	// SampleRate in Hz. 16000 keeps voice notes small and clear.
	SampleRate int `yaml:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `yaml:"channels"`
}

// ClassifierConfig configures the optional remote sound classifier. When
// Endpoint is empty, the local amplitude heuristic is used instead.
type ClassifierConfig struct {
	// Endpoint is the analysis service URL. Empty disables the remote call.
	Endpoint string `yaml:"endpoint"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`

	// TimeoutSeconds bounds the single classification attempt.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ExportConfig configures the standalone-file export.
type ExportConfig struct {
	// Dir receives exported WAV files. Defaults to the storage directory's
	// "exports" subdirectory.
	Dir string `yaml:"dir"`
}
