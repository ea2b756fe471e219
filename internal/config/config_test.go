package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("BLOB_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.Extraction.Model)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.Timeout)
	assert.Equal(t, 50000, cfg.Extraction.MaxChars)
	assert.Equal(t, 5, cfg.Worker.Count)
	assert.False(t, cfg.Pipeline.SingleCommit)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.StaleAfter)
	assert.False(t, cfg.JSONLogs())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("GCP_PROJECT", "demo-project")
	t.Setenv("BLOB_BACKEND", "gcs")
	t.Setenv("GCS_BUCKET", "uploads")
	t.Setenv("SINGLE_COMMIT", "true")
	t.Setenv("EXTRACTION_TIMEOUT", "30s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "demo-project", cfg.Store.ProjectID)
	assert.Equal(t, "uploads", cfg.Blob.Bucket)
	assert.True(t, cfg.Pipeline.SingleCommit)
	assert.Equal(t, 30*time.Second, cfg.Extraction.Timeout)
	assert.True(t, cfg.JSONLogs())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Store.Backend = BackendMemory
		c.Blob.Backend = BackendMemory
		c.Extraction.MaxChars = 50000
		c.Worker.Count = 1
		return c
	}

	t.Run("firestore needs project", func(t *testing.T) {
		c := base()
		c.Store.Backend = BackendFirestore
		assert.Error(t, c.Validate())
	})

	t.Run("gcs needs bucket", func(t *testing.T) {
		c := base()
		c.Blob.Backend = BackendGCS
		assert.Error(t, c.Validate())
	})

	t.Run("unknown backend", func(t *testing.T) {
		c := base()
		c.Store.Backend = "mongo"
		assert.Error(t, c.Validate())
	})

	t.Run("audit needs project", func(t *testing.T) {
		c := base()
		c.Audit.Enabled = true
		assert.Error(t, c.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
}
