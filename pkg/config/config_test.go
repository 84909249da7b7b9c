package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inf-monkeys/monkey-tools-text/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8890, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8890", cfg.Server.Addr())
	assert.Equal(t, "monkeys_tools_text", cfg.Server.Namespace)
	assert.Equal(t, "./download", cfg.Workspace.Root)
	assert.Equal(t, config.DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "workflow/artifact", cfg.Storage.KeyPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Timeouts.Tool)
	assert.Equal(t, time.Hour, cfg.Cache.Redis.TTL)
	assert.Equal(t, "chi_sim+eng", cfg.OCR.Languages)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monkeytools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
storage:
  driver: s3
  s3:
    endpoint: tos-cn-beijing.volces.com
    bucket: monkeys
timeouts:
  process: 30s
`), 0o644))

	t.Setenv("MONKEYTOOLS_STORAGE_S3_ACCESS_KEY", "ak")
	t.Setenv("MONKEYTOOLS_SERVER_PORT", "9100")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 8890, "")
	fs.String("log-level", "info", "")
	require.NoError(t, fs.Parse([]string{"--log-level", "debug"}))

	cfg, err := config.Load(path, config.WithFlags(fs, map[string]string{
		"server.port": "port",
		"log.level":   "log-level",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env beats file, unset flag does not override")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ak", cfg.Storage.S3.AccessKey)
	assert.Equal(t, "monkeys", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UseSSL)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Process)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := config.Load("", config.WithValue("storage.driver", "s3"), config.WithValue("log.format", "xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3.endpoint")
	assert.Contains(t, err.Error(), "log.format")
}

func TestWithFlags_UnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := config.Load("", config.WithFlags(fs, map[string]string{"server.port": "port"}))
	assert.ErrorContains(t, err, "unknown flag")
}
