package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Merge precedence: overrides beat global beat defaults, field by field.
func TestConfigMergePrecedence(t *testing.T) {
	// Generator for a non-empty string field value.
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	// Generator for a Config with each field independently set or left zero.
	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasHost") {
			cfg.Host = nonEmptyString.Draw(t, "host")
		}
		if rapid.Bool().Draw(t, "hasPort") {
			cfg.Port = uint16(rapid.UintRange(1, 65535).Draw(t, "port"))
		}
		if rapid.Bool().Draw(t, "hasEditor") {
			cfg.Editor = nonEmptyString.Draw(t, "editor")
		}
		if rapid.Bool().Draw(t, "hasInboundDebounce") {
			cfg.InboundDebounce = nonEmptyString.Draw(t, "inboundDebounce")
		}
		if rapid.Bool().Draw(t, "hasIdleTimeout") {
			cfg.IdleTimeout = nonEmptyString.Draw(t, "idleTimeout")
		}
		if rapid.Bool().Draw(t, "hasLogLevel") {
			cfg.LogLevel = nonEmptyString.Draw(t, "logLevel")
		}
		if rapid.Bool().Draw(t, "hasLogFormat") {
			cfg.LogFormat = nonEmptyString.Draw(t, "logFormat")
		}
		cfg.Multi = rapid.Bool().Draw(t, "multi")
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		overrides := configGen.Draw(t, "overrides")

		merged := Merge(global, overrides)
		defaults := Defaults()

		checkStringField(t, "Host",
			global.Host, overrides.Host, defaults.Host, merged.Host)
		checkStringField(t, "Editor",
			global.Editor, overrides.Editor, defaults.Editor, merged.Editor)
		checkStringField(t, "InboundDebounce",
			global.InboundDebounce, overrides.InboundDebounce, defaults.InboundDebounce,
			merged.InboundDebounce)
		checkStringField(t, "IdleTimeout",
			global.IdleTimeout, overrides.IdleTimeout, defaults.IdleTimeout,
			merged.IdleTimeout)
		checkStringField(t, "LogLevel",
			global.LogLevel, overrides.LogLevel, defaults.LogLevel, merged.LogLevel)
		checkStringField(t, "LogFormat",
			global.LogFormat, overrides.LogFormat, defaults.LogFormat, merged.LogFormat)

		// Port: zero means unset.
		wantPort := defaults.Port
		if global.Port != 0 {
			wantPort = global.Port
		}
		if overrides.Port != 0 {
			wantPort = overrides.Port
		}
		if merged.Port != wantPort {
			t.Fatalf("Port: expected %d, got %d", wantPort, merged.Port)
		}

		// Multi: either source can turn it on.
		if merged.Multi != (global.Multi || overrides.Multi) {
			t.Fatalf("Multi: expected %v, got %v",
				global.Multi || overrides.Multi, merged.Multi)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - overrides non-empty → merged == overrides
//   - overrides empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, overrideVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case overrideVal != "":
		if mergedVal != overrideVal {
			t.Fatalf("%s: both set — expected override value %q, got %q", name, overrideVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set — expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set — expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.Host != "127.0.0.1" {
		t.Errorf("Host: want %q, got %q", "127.0.0.1", d.Host)
	}
	if d.Port != 4001 {
		t.Errorf("Port: want 4001, got %d", d.Port)
	}
	if d.LogLevel != "info" {
		t.Errorf("LogLevel: want %q, got %q", "info", d.LogLevel)
	}
	if d.LogFormat != "text" {
		t.Errorf("LogFormat: want %q, got %q", "text", d.LogFormat)
	}
	if d.Multi {
		t.Error("Multi: want false by default")
	}
	if d.Editor != "" {
		t.Errorf("Editor: want empty, got %q", d.Editor)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if *cfg != defaults {
		t.Errorf("want defaults %+v, got %+v", defaults, *cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	// Write an invalid JSON file where LoadGlobal expects it.
	cfgDir := filepath.Join(tmp, ".config", "ghostedit")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	want := Config{
		Host:            "0.0.0.0",
		Port:            4999,
		Editor:          "nano +%l,%c",
		Multi:           true,
		InboundDebounce: "150ms",
		IdleTimeout:     "30m",
		LogLevel:        "debug",
		LogFormat:       "json",
	}
	if err := Save(&want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if *got != want {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", want, *got)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Config{InboundDebounce: "150ms", IdleTimeout: "30m"}

	d, err := cfg.InboundDebounceInterval()
	if err != nil || d != 150*time.Millisecond {
		t.Errorf("InboundDebounceInterval: want 150ms, got %v (err=%v)", d, err)
	}
	d, err = cfg.IdleTimeoutInterval()
	if err != nil || d != 30*time.Minute {
		t.Errorf("IdleTimeoutInterval: want 30m, got %v (err=%v)", d, err)
	}

	empty := Config{}
	d, err = empty.InboundDebounceInterval()
	if err != nil || d != 0 {
		t.Errorf("empty InboundDebounceInterval: want 0, got %v (err=%v)", d, err)
	}

	bad := Config{IdleTimeout: "soon"}
	if _, err := bad.IdleTimeoutInterval(); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
	negative := Config{IdleTimeout: "-1s"}
	if _, err := negative.IdleTimeoutInterval(); err == nil {
		t.Error("expected an error for a negative duration")
	}
}

func TestResolveEditorPrecedence(t *testing.T) {
	t.Setenv("GHOST_TEXT_EDITOR", "ghost-editor")
	t.Setenv("EDITOR", "env-editor")

	got, err := ResolveEditor("configured-editor")
	if err != nil || got != "configured-editor" {
		t.Errorf("configured value should win: got %q (err=%v)", got, err)
	}

	got, err = ResolveEditor("")
	if err != nil || got != "ghost-editor" {
		t.Errorf("GHOST_TEXT_EDITOR should win over EDITOR: got %q (err=%v)", got, err)
	}

	t.Setenv("GHOST_TEXT_EDITOR", "")
	got, err = ResolveEditor("")
	if err != nil || got != "env-editor" {
		t.Errorf("EDITOR is the last fallback: got %q (err=%v)", got, err)
	}

	t.Setenv("EDITOR", "")
	if _, err := ResolveEditor(""); err == nil {
		t.Error("expected an error when no editor is configured anywhere")
	}
}
