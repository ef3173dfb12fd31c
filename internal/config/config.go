package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Storage and recorder backends.
const (
	BackendNone      = ""
	BackendSupabase  = "supabase"
	BackendGCS       = "gcs"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config holds application configuration.
type Config struct {
	OutputDir string `toml:"output_dir"`
	LogFormat string `toml:"log_format"`
	Verbose   bool   `toml:"verbose"`

	Server   ServerConfig   `toml:"server"`
	Extract  ExtractConfig  `toml:"extract"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Storage  StorageConfig  `toml:"storage"`
	Recorder RecorderConfig `toml:"recorder"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Port int `toml:"port"`
	// RequirePublish makes POST /convert fail when an uploader is
	// configured but the upload did not produce a public URL.
	RequirePublish  bool     `toml:"require_publish"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	// Secret, if set, requires signed POST /convert requests.
	Secret string `toml:"secret"`
}

// ExtractConfig configures yt-dlp.
type ExtractConfig struct {
	Executable        string `toml:"executable"`
	AudioFormat       string `toml:"audio_format"`
	Bitrate           string `toml:"bitrate"`
	Naming            string `toml:"naming"`
	Retries           int    `toml:"retries"`
	FragmentRetries   int    `toml:"fragment_retries"`
	ExtractorRetries  int    `toml:"extractor_retries"`
	FileAccessRetries int    `toml:"file_access_retries"`
	RetrySleep        string `toml:"retry_sleep"`
}

// PipelineConfig holds optional per-stage deadlines.
type PipelineConfig struct {
	ExtractTimeout Duration `toml:"extract_timeout"`
	UploadTimeout  Duration `toml:"upload_timeout"`
	RecordTimeout  Duration `toml:"record_timeout"`
	Annotate       bool     `toml:"annotate"`
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Backend  string         `toml:"backend"`
	Supabase SupabaseConfig `toml:"supabase"`
	GCS      GCSConfig      `toml:"gcs"`
}

// SupabaseConfig configures Supabase Storage.
type SupabaseConfig struct {
	URL    string `toml:"url"`
	Key    string `toml:"key"`
	Bucket string `toml:"bucket"`
}

// GCSConfig configures Google Cloud Storage.
type GCSConfig struct {
	Bucket        string `toml:"bucket"`
	PublicBaseURL string `toml:"public_base_url"`
}

// RecorderConfig selects and configures the metadata store.
type RecorderConfig struct {
	Backend             string `toml:"backend"`
	DBPath              string `toml:"db_path"`
	FirestoreProject    string `toml:"firestore_project"`
	FirestoreCollection string `toml:"firestore_collection"`
}

// Duration is a time.Duration that decodes from a TOML string like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "audiograb", "downloads.db")
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "audiograb", "config.toml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputDir: "downloads",
		LogFormat: "text",
		Server: ServerConfig{
			Port:            5000,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Extract: ExtractConfig{
			AudioFormat:       "mp3",
			Bitrate:           "192K",
			Naming:            "title",
			Retries:           10,
			FragmentRetries:   10,
			ExtractorRetries:  10,
			FileAccessRetries: 10,
			RetrySleep:        "1",
		},
		Pipeline: PipelineConfig{Annotate: true},
		Storage: StorageConfig{
			Supabase: SupabaseConfig{Bucket: "audio"},
			GCS:      GCSConfig{PublicBaseURL: "https://storage.googleapis.com"},
		},
		Recorder: RecorderConfig{
			DBPath:              DefaultDBPath(),
			FirestoreCollection: "downloads",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path, a .env file in
// the working directory and environment overrides, in that order. A missing
// file at the default path is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("AUDIOGRAB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if secret := os.Getenv("AUDIOGRAB_SECRET"); secret != "" {
		c.Server.Secret = secret
	}
	if dir := os.Getenv("AUDIOGRAB_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if db := os.Getenv("AUDIOGRAB_DB"); db != "" {
		c.Recorder.DBPath = db
	}
	if b := os.Getenv("AUDIOGRAB_STORAGE"); b != "" {
		c.Storage.Backend = b
	}
	if b := os.Getenv("AUDIOGRAB_RECORDER"); b != "" {
		c.Recorder.Backend = b
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.Storage.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_KEY"); v != "" {
		c.Storage.Supabase.Key = v
	}
	if v := os.Getenv("SUPABASE_BUCKET"); v != "" {
		c.Storage.Supabase.Bucket = v
	}
	if v := os.Getenv("GCS_BUCKET"); v != "" {
		c.Storage.GCS.Bucket = v
	}
	if v := os.Getenv("FIRESTORE_PROJECT"); v != "" {
		c.Recorder.FirestoreProject = v
	}
}

// Validate checks backend selections and their required settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendNone:
	case BackendSupabase:
		if c.Storage.Supabase.URL == "" || c.Storage.Supabase.Key == "" {
			errs = append(errs, errors.New("storage: supabase requires url and key (SUPABASE_URL, SUPABASE_KEY)"))
		}
		if c.Storage.Supabase.Bucket == "" {
			errs = append(errs, errors.New("storage: supabase bucket is empty"))
		}
	case BackendGCS:
		if c.Storage.GCS.Bucket == "" {
			errs = append(errs, errors.New("storage: gcs requires a bucket (GCS_BUCKET)"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend))
	}

	switch c.Recorder.Backend {
	case BackendNone:
	case BackendSQLite:
		if c.Recorder.DBPath == "" {
			errs = append(errs, errors.New("recorder: sqlite requires db_path"))
		}
	case BackendFirestore:
		if c.Recorder.FirestoreProject == "" {
			errs = append(errs, errors.New("recorder: firestore requires a project (FIRESTORE_PROJECT)"))
		}
	default:
		errs = append(errs, fmt.Errorf("recorder: unknown backend %q", c.Recorder.Backend))
	}

	switch c.Extract.Naming {
	case "title", "id":
	default:
		errs = append(errs, fmt.Errorf("extract: naming must be \"title\" or \"id\", got %q", c.Extract.Naming))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: invalid port %d", c.Server.Port))
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
