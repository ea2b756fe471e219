package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
	BackendGCS       = "gcs"
)

type Config struct {
	App struct {
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
		// TriggerToken, when set, must be presented as a bearer token on /events/*.
		TriggerToken string `envconfig:"TRIGGER_TOKEN"`
	}

	Store struct {
		Backend    string `envconfig:"STORE_BACKEND" default:"firestore"`
		ProjectID  string `envconfig:"GCP_PROJECT"`
		Database   string `envconfig:"FIRESTORE_DATABASE" default:"(default)"`
		SQLitePath string `envconfig:"SQLITE_PATH" default:"finance.db"`
	}

	Blob struct {
		Backend string `envconfig:"BLOB_BACKEND" default:"gcs"`
		Bucket  string `envconfig:"GCS_BUCKET"`
	}

	Extraction struct {
		Model    string        `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
		Timeout  time.Duration `envconfig:"EXTRACTION_TIMEOUT" default:"2m"`
		MaxChars int           `envconfig:"EXTRACTION_MAX_CHARS" default:"50000"`
	}

	Audit struct {
		Enabled bool   `envconfig:"AUDIT_ENABLED" default:"false"`
		Dataset string `envconfig:"BQ_DATASET" default:"finance"`
		Table   string `envconfig:"BQ_TABLE" default:"extraction_runs"`
	}

	Worker struct {
		Count     int `envconfig:"WORKER_COUNT" default:"5"`
		QueueSize int `envconfig:"QUEUE_SIZE" default:"100"`
	}

	Pipeline struct {
		SingleCommit bool          `envconfig:"SINGLE_COMMIT" default:"false"`
		StaleAfter   time.Duration `envconfig:"STALE_AFTER" default:"15m"`
	}
}

// Load reads an optional .env file from the working directory and then
// processes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field requirements that envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFirestore:
		if c.Store.ProjectID == "" {
			return fmt.Errorf("config: GCP_PROJECT is required for the firestore backend")
		}
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Blob.Backend {
	case BackendGCS:
		if c.Blob.Bucket == "" {
			return fmt.Errorf("config: GCS_BUCKET is required for the gcs blob backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown BLOB_BACKEND %q", c.Blob.Backend)
	}

	if c.Audit.Enabled && c.Store.ProjectID == "" {
		return fmt.Errorf("config: GCP_PROJECT is required when AUDIT_ENABLED is set")
	}
	if c.Extraction.MaxChars <= 0 {
		return fmt.Errorf("config: EXTRACTION_MAX_CHARS must be positive")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("config: WORKER_COUNT must be positive")
	}

	return nil
}

// JSONLogs reports whether logs should be emitted as JSON lines.
func (c *Config) JSONLogs() bool {
	return c.App.LogFormat == "json"
}
