package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_FEISHU_SECRET", "s3cret")
	path := writeFile(t, `
storage:
  type: feishu
  save_policy: all
feishu:
  app_id: cli_app
  app_secret: $TEST_FEISHU_SECRET
  root_token: fld-root
retrieval:
  limit: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "feishu", cfg.Storage.Type)
	assert.Equal(t, "all", cfg.Storage.SavePolicy)
	assert.Equal(t, "s3cret", cfg.Feishu.AppSecret)
	assert.Equal(t, "fld-root", cfg.Feishu.RootToken)
	assert.Equal(t, 5, cfg.Retrieval.Limit)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, 8, cfg.Feishu.Workers)
	assert.Equal(t, "https://open.feishu.cn/open-apis", cfg.Feishu.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeFile(t, "storage:\n  type: local\n  path: /tmp/notes\n")
	t.Setenv("FLASHMEMO_STORAGE_PATH", "/srv/notes")
	t.Setenv("FLASHMEMO_LLM_MODEL", "local-model")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/notes", cfg.Storage.Path)
	assert.Equal(t, "local-model", cfg.LLM.Model)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load(writeFile(t, "storage: [broken"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "storage:\n  type: feishu\n"))
	assert.ErrorContains(t, err, "app_id")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown storage", func(c *Config) { c.Storage.Type = "s3" }, "storage.type"},
		{"empty path", func(c *Config) { c.Storage.Path = " " }, "storage.path"},
		{"feishu without root", func(c *Config) {
			c.Storage.Type = "feishu"
			c.Feishu.AppID, c.Feishu.AppSecret = "a", "b"
		}, "root_token"},
		{"bad policy", func(c *Config) { c.Storage.SavePolicy = "most" }, "save_policy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	cfg := DefaultConfig()
	cfg.Retrieval.Limit = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Retrieval.Limit)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Path = "/data/notes"
	require.NoError(t, Write(path, cfg, false))
	assert.Error(t, Write(path, cfg, false), "existing files are kept")
	require.NoError(t, Write(path, cfg, true))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "flashmemo", "config.yaml"), DefaultPath())
}
