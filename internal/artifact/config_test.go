package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: local
local:
  root: /srv/ci/artifacts
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Backend)
	assert.Equal(t, "/srv/ci/artifacts", cfg.Local.Root)
}

func TestLoadConfig_MinIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: minio
minio:
  endpoint: minio.internal:9000
  access_key: ci
  secret_key: secret
  bucket: ci-artifacts
  use_ssl: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.Backend)
	assert.Equal(t, "minio.internal:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "ci-artifacts", cfg.MinIO.Bucket)
	assert.True(t, cfg.MinIO.UseSSL)
	require.NoError(t, cfg.MinIO.Validate())
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "ftp"})
	assert.Error(t, err)
}

func TestOpen_DefaultsToLocal(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{}
	cfg.Local.Root = filepath.Join(dir, "artifacts")

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.DirExists(t, cfg.Local.Root)
}

func TestMinIOConfig_Validate(t *testing.T) {
	valid := MinIOConfig{Endpoint: "e:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	require.NoError(t, valid.Validate())

	assert.Error(t, MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}.Validate())
	assert.Error(t, MinIOConfig{Endpoint: "e", Bucket: "b"}.Validate())
	assert.Error(t, MinIOConfig{Endpoint: "e", AccessKey: "a", SecretKey: "s"}.Validate())
}
