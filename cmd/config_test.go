package main

import (
	"os"
	"path/filepath"
	"testing"

	"cv-platform/internal/photo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CV_ADDR", "")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Server.Addr)
	assert.Equal(t, defaultDBPath, cfg.Database.Path)
	assert.Equal(t, photo.BackendLocal, cfg.Photo.Backend)
	assert.Equal(t, "uploads", cfg.Photo.LocalDir)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  path: "from-file.db"
autosave:
  interval: "5s"
auth:
  bcrypt_cost: 12
photo:
  backend: minio
  minio:
    endpoint: "localhost:9000"
    bucket: "photos"
log:
  mode: prod
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CV_DB_PATH", "from-env.db")
	t.Setenv("MINIO_SECRET_KEY", "s3cret")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "5s", cfg.Autosave.Interval)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, photo.BackendMinIO, cfg.Photo.Backend)
	assert.Equal(t, "photos", cfg.Photo.MinIO.Bucket)
	assert.Equal(t, "s3cret", cfg.Photo.MinIO.SecretAccessKey)
	assert.Equal(t, "prod", cfg.Log.Mode)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [oops"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestBuildAppWiresHandler(t *testing.T) {
	dir := t.TempDir()
	cfg := AppConfig{}
	cfg.Database.Path = filepath.Join(dir, "cv.db")
	cfg.Photo.LocalDir = filepath.Join(dir, "uploads")
	cfg.Autosave.Interval = "2s"
	applyDefaults(&cfg)

	deps, cleanup, err := buildApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.handler)
	assert.NotNil(t, deps.exporter)
	assert.Equal(t, "2s", deps.sched.Interval().String())
}
