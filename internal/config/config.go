package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configurable ghostedit settings.
type Config struct {
	Host            string `json:"host"`
	Port            uint16 `json:"port"`
	Editor          string `json:"editor"`           // command template, may contain %f %l %c
	Multi           bool   `json:"multi"`            // allow concurrent editor instances
	InboundDebounce string `json:"inbound_debounce"` // Go duration, empty disables
	IdleTimeout     string `json:"idle_timeout"`     // Go duration, empty disables
	LogLevel        string `json:"log_level"`        // debug | info | warn | error
	LogFormat       string `json:"log_format"`       // text | json
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      4001,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// GlobalPath returns the path of the user-level config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ghostedit", "config.json"), nil
}

// LoadGlobal reads ~/.config/ghostedit/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// loadFile reads and parses a JSON config file at path.
// Returns defaults when the file is absent.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d := Defaults()
			return &d, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Save writes the config to the global path, creating the config
// directory if needed.
func Save(cfg *Config) error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge combines the loaded config with command-line overrides, with
// overrides taking precedence. Missing keys fall back to global, then
// defaults. Multi is sticky: either source can turn it on.
func Merge(global, overrides *Config) Config {
	result := Defaults()

	// Apply global values over defaults.
	if global != nil {
		if global.Host != "" {
			result.Host = global.Host
		}
		if global.Port != 0 {
			result.Port = global.Port
		}
		if global.Editor != "" {
			result.Editor = global.Editor
		}
		if global.InboundDebounce != "" {
			result.InboundDebounce = global.InboundDebounce
		}
		if global.IdleTimeout != "" {
			result.IdleTimeout = global.IdleTimeout
		}
		if global.LogLevel != "" {
			result.LogLevel = global.LogLevel
		}
		if global.LogFormat != "" {
			result.LogFormat = global.LogFormat
		}
		result.Multi = result.Multi || global.Multi
	}

	// Apply overrides over global.
	if overrides != nil {
		if overrides.Host != "" {
			result.Host = overrides.Host
		}
		if overrides.Port != 0 {
			result.Port = overrides.Port
		}
		if overrides.Editor != "" {
			result.Editor = overrides.Editor
		}
		if overrides.InboundDebounce != "" {
			result.InboundDebounce = overrides.InboundDebounce
		}
		if overrides.IdleTimeout != "" {
			result.IdleTimeout = overrides.IdleTimeout
		}
		if overrides.LogLevel != "" {
			result.LogLevel = overrides.LogLevel
		}
		if overrides.LogFormat != "" {
			result.LogFormat = overrides.LogFormat
		}
		result.Multi = result.Multi || overrides.Multi
	}

	return result
}

// InboundDebounceInterval parses the inbound debounce setting.
// An empty value means debouncing is disabled.
func (c *Config) InboundDebounceInterval() (time.Duration, error) {
	return parseOptionalDuration(c.InboundDebounce)
}

// IdleTimeoutInterval parses the idle timeout setting.
// An empty value means the server never shuts down on its own.
func (c *Config) IdleTimeoutInterval() (time.Duration, error) {
	return parseOptionalDuration(c.IdleTimeout)
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}

// ResolveEditor picks the editor command template: the configured value
// if set, then the GHOST_TEXT_EDITOR and EDITOR environment variables.
func ResolveEditor(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if v := os.Getenv("GHOST_TEXT_EDITOR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v, nil
	}
	return "", errors.New("no editor configured: set --editor, the config file, GHOST_TEXT_EDITOR, or EDITOR")
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
