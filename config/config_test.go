package config

import (
	"testing"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()

	v.Reset()
	setDefaults()
	v.Set("jwt.secret", "test-secret")
	v.Set("storage.type", "memory")
	t.Cleanup(v.Reset)
}

func TestValidateDefaults(t *testing.T) {
	reset(t)

	require.NoError(t, Validate())
	assert.EqualValues(t, 50<<20, v.GetInt64("upload.max_size"))
	assert.EqualValues(t, 2<<30, v.GetInt64("storage.total_capacity"))
	assert.Equal(t, "sqlite", v.GetString("db.driver"))

	// Running it again must not shift the size twice
	require.NoError(t, Validate())
	assert.EqualValues(t, 50<<20, v.GetInt64("upload.max_size"))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"log level", "app.log_level", "verbose"},
		{"port", "host.port", 0},
		{"driver", "db.driver", "mongodb"},
		{"storage type", "storage.type", "ftp"},
		{"queue", "ingest.queue", "kafka"},
		{"cache store", "cache.store", "memcached"},
		{"workers", "ingest.workers", 0},
		{"capacity", "storage.total_capacity", -1},
		{"upload size", "upload.max_size", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)
			v.Set(tt.key, tt.value)
			assert.Error(t, Validate())
		})
	}
}

func TestValidateStorageCredentials(t *testing.T) {
	reset(t)
	v.Set("storage.type", "minio")
	v.Set("minio.endpoint", "localhost:9000")
	v.Set("minio.bucket", "files")
	v.Set("minio.access_key", "minio")

	err := Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio.secret_key")

	v.Set("minio.secret_key", "minio123")
	assert.NoError(t, Validate())
}

func TestValidateRequiresSecret(t *testing.T) {
	reset(t)
	v.Set("jwt.secret", "")

	assert.ErrorIs(t, Validate(), ErrNoSecret)
}
