package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultDBPath(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")

		expected := "/custom/cache/audiograb/downloads.db"
		if path := DefaultDBPath(); path != expected {
			t.Errorf("DefaultDBPath() = %q, want %q", path, expected)
		}
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")

		path := DefaultDBPath()
		if !strings.HasSuffix(path, filepath.Join(".cache", "audiograb", "downloads.db")) {
			t.Errorf("DefaultDBPath() = %q, want suffix .cache/audiograb/downloads.db", path)
		}
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	expected := "/custom/config/audiograb/config.toml"
	if path := DefaultConfigPath(); path != expected {
		t.Errorf("DefaultConfigPath() = %q, want %q", path, expected)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Extract.Bitrate != "192K" {
		t.Errorf("Bitrate = %q, want 192K", cfg.Extract.Bitrate)
	}
	if cfg.Extract.AudioFormat != "mp3" {
		t.Errorf("AudioFormat = %q, want mp3", cfg.Extract.AudioFormat)
	}
	for name, n := range map[string]int{
		"retries":             cfg.Extract.Retries,
		"fragment_retries":    cfg.Extract.FragmentRetries,
		"extractor_retries":   cfg.Extract.ExtractorRetries,
		"file_access_retries": cfg.Extract.FileAccessRetries,
	} {
		if n != 10 {
			t.Errorf("%s = %d, want 10", name, n)
		}
	}
	if cfg.Storage.Supabase.Bucket != "audio" {
		t.Errorf("Supabase.Bucket = %q, want audio", cfg.Storage.Supabase.Bucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUDIOGRAB_PORT", "AUDIOGRAB_SECRET", "AUDIOGRAB_OUTPUT_DIR", "AUDIOGRAB_DB",
		"AUDIOGRAB_STORAGE", "AUDIOGRAB_RECORDER",
		"SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_BUCKET",
		"GCS_BUCKET", "FIRESTORE_PROJECT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_File(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
output_dir = "/srv/audio"

[server]
port = 8080
require_publish = true

[extract]
bitrate = "128K"
fragment_retries = 3

[pipeline]
extract_timeout = "5m"

[storage]
backend = "supabase"

[storage.supabase]
url = "https://project.supabase.co"
key = "secret"

[recorder]
backend = "sqlite"
db_path = "/var/lib/audiograb.db"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OutputDir != "/srv/audio" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Server.Port != 8080 || !cfg.Server.RequirePublish {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Extract.Bitrate != "128K" {
		t.Errorf("Bitrate = %q, want 128K", cfg.Extract.Bitrate)
	}
	if cfg.Extract.FragmentRetries != 3 || cfg.Extract.Retries != 10 {
		t.Errorf("retries = %d/%d, want 10/3", cfg.Extract.Retries, cfg.Extract.FragmentRetries)
	}
	if cfg.Pipeline.ExtractTimeout.Duration != 5*time.Minute {
		t.Errorf("ExtractTimeout = %v, want 5m", cfg.Pipeline.ExtractTimeout)
	}
	if cfg.Storage.Supabase.Bucket != "audio" {
		t.Errorf("Supabase.Bucket = %q, want default audio", cfg.Storage.Supabase.Bucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolateEnv(t)

	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") with no default file error = %v, want nil", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(explicit missing) error = nil, want error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AUDIOGRAB_PORT", "9000")
	t.Setenv("AUDIOGRAB_OUTPUT_DIR", "/tmp/out")
	t.Setenv("AUDIOGRAB_STORAGE", "gcs")
	t.Setenv("GCS_BUCKET", "my-bucket")
	t.Setenv("SUPABASE_KEY", "k")
	t.Setenv("AUDIOGRAB_SECRET", "hush")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Storage.Backend != BackendGCS || cfg.Storage.GCS.Bucket != "my-bucket" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Server.Secret != "hush" {
		t.Errorf("Secret = %q, want hush", cfg.Server.Secret)
	}
	if cfg.Storage.Supabase.Key != "k" {
		t.Errorf("Supabase.Key = %q, want k", cfg.Storage.Supabase.Key)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolateEnv(t)
	if err := os.WriteFile(".env", []byte("SUPABASE_URL=https://env.supabase.co\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, even empty.
	os.Unsetenv("SUPABASE_URL")
	t.Cleanup(func() { os.Unsetenv("SUPABASE_URL") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Supabase.URL != "https://env.supabase.co" {
		t.Errorf("Supabase.URL = %q, want value from .env", cfg.Storage.Supabase.URL)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, `unknown backend "s3"`},
		{"supabase without key", func(c *Config) {
			c.Storage.Backend = BackendSupabase
			c.Storage.Supabase.URL = "https://x.supabase.co"
		}, "supabase requires url and key"},
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = BackendGCS }, "gcs requires a bucket"},
		{"firestore without project", func(c *Config) { c.Recorder.Backend = BackendFirestore }, "firestore requires a project"},
		{"unknown recorder", func(c *Config) { c.Recorder.Backend = "postgres" }, `unknown backend "postgres"`},
		{"bad naming", func(c *Config) { c.Extract.Naming = "hash" }, "naming must be"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid port"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
