package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		EnvPort, EnvLogLevel, EnvLogFile, EnvDataDir,
		EnvExtractorURL, EnvPlayerURL, EnvFormatID, EnvHeadless,
	} {
		os.Unsetenv(env)
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.LogFile() != "" {
		t.Errorf("LogFile() = %q, want empty", cfg.LogFile())
	}
	if cfg.ExtractorURL() != DefaultExtractorURL {
		t.Errorf("ExtractorURL() = %q, want %q", cfg.ExtractorURL(), DefaultExtractorURL)
	}
	if cfg.PlayerURL() != DefaultPlayerURL {
		t.Errorf("PlayerURL() = %q, want %q", cfg.PlayerURL(), DefaultPlayerURL)
	}
	if cfg.FormatID() != DefaultFormatID {
		t.Errorf("FormatID() = %q, want %q", cfg.FormatID(), DefaultFormatID)
	}
	if cfg.Headless() {
		t.Error("Headless() = true, want false")
	}
	if !strings.HasSuffix(cfg.DataDir(), DefaultDataDir) {
		t.Errorf("DataDir() = %q, want suffix %q", cfg.DataDir(), DefaultDataDir)
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvPort, "9100")
	os.Setenv(EnvLogLevel, "debug")
	os.Setenv(EnvDataDir, "/tmp/clipmark-test")
	os.Setenv(EnvExtractorURL, "http://127.0.0.1:6000")
	os.Setenv(EnvPlayerURL, "http://127.0.0.1:7000")
	os.Setenv(EnvFormatID, "137+140")
	os.Setenv(EnvHeadless, "true")
	defer clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != "/tmp/clipmark-test" {
		t.Errorf("DataDir() = %q, want /tmp/clipmark-test", cfg.DataDir())
	}
	if cfg.ExtractorURL() != "http://127.0.0.1:6000" {
		t.Errorf("ExtractorURL() = %q", cfg.ExtractorURL())
	}
	if cfg.PlayerURL() != "http://127.0.0.1:7000" {
		t.Errorf("PlayerURL() = %q", cfg.PlayerURL())
	}
	if cfg.FormatID() != "137+140" {
		t.Errorf("FormatID() = %q, want 137+140", cfg.FormatID())
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true")
	}
}

func TestNew_InvalidPort(t *testing.T) {
	clearEnv(t)
	defer clearEnv(t)

	for _, bad := range []string{"abc", "0", "70000"} {
		os.Setenv(EnvPort, bad)
		if _, err := New(); err == nil {
			t.Errorf("New() with %s=%q expected error", EnvPort, bad)
		}
	}
}

func TestNew_InvalidHeadless(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvHeadless, "maybe")
	defer clearEnv(t)

	if _, err := New(); err == nil {
		t.Error("New() with invalid headless flag expected error")
	}
}

func TestDBPath(t *testing.T) {
	clearEnv(t)
	os.Setenv(EnvDataDir, "/tmp/clipmark-test")
	defer clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join("/tmp/clipmark-test", DBFilename)
	if cfg.DBPath() != want {
		t.Errorf("DBPath() = %q, want %q", cfg.DBPath(), want)
	}
}
