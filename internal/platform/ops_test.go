package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwbq/FlashMemo/internal/config"
	"github.com/wwwbq/FlashMemo/internal/platform"
	"github.com/wwwbq/FlashMemo/pkg/adapters/feishu"
	"github.com/wwwbq/FlashMemo/pkg/adapters/fs"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("Local store creates its root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "notes")

		storage, err := platform.Init(root, platform.WithAdapter(platform.AdapterLocal))
		require.NoError(t, err)

		store, ok := storage.(*fs.Store)
		require.True(t, ok)
		assert.Equal(t, root, store.Path)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.NoDirExists(t, filepath.Join(root, ".git"), "versioning is off by default")
	})

	t.Run("fs is an alias", func(t *testing.T) {
		storage, err := platform.Init(t.TempDir(), platform.WithAdapter(platform.AdapterFS))
		require.NoError(t, err)
		assert.IsType(t, &fs.Store{}, storage)
	})

	t.Run("Feishu store needs credentials", func(t *testing.T) {
		_, err := platform.Init("fld-root", platform.WithAdapter(platform.AdapterFeishu))
		assert.Error(t, err)

		storage, err := platform.Init("fld-root",
			platform.WithAdapter(platform.AdapterFeishu),
			platform.WithFeishuCredentials("app", "secret"),
			platform.WithBaseURL("http://127.0.0.1:1"),
			platform.WithWorkers(2),
		)
		require.NoError(t, err)
		store, ok := storage.(*feishu.Store)
		require.True(t, ok)
		state := store.State().(feishu.StoreState)
		assert.Equal(t, 2, state.Workers)
		assert.Equal(t, "fld-root", state.RootToken)
	})

	t.Run("Unknown adapter", func(t *testing.T) {
		_, err := platform.Init("x", platform.WithAdapter("s3"))
		assert.ErrorContains(t, err, "unknown adapter")
	})

	t.Run("Injected storage wins", func(t *testing.T) {
		injected := fs.NewStore(fs.Config{Path: t.TempDir()})
		storage, err := platform.Init("ignored", platform.WithAdapter("s3"), platform.WithStorage(injected))
		require.NoError(t, err)
		assert.Same(t, injected, storage)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	svc, err := platform.New(t.TempDir(), platform.WithSavePolicy(core.PolicyAll))
	require.NoError(t, err)

	res, err := svc.SaveNote(ctx, core.NewNote("hello", "work"))
	require.NoError(t, err)
	assert.True(t, res.OK)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, tags)
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := platform.ResolvePath("~/notes", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes"), got)

	got, err = platform.ResolvePath("", false)
	require.NoError(t, err)
	assert.Equal(t, ".", got)

	inTemp := filepath.Join(os.TempDir(), "already-safe")
	got, err = platform.ResolvePath(inTemp, true)
	require.NoError(t, err)
	assert.Equal(t, inTemp, got)

	got, err = platform.ResolvePath("/srv/data/notes", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.TempDir(), "flashmemo-dev", "notes"), got)
}

func TestFromConfig(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.Path = t.TempDir()

		uri, opts, err := platform.FromConfig(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, cfg.Storage.Path, uri)

		storage, err := platform.Init(uri, opts...)
		require.NoError(t, err)
		assert.IsType(t, &fs.Store{}, storage)
	})

	t.Run("Feishu", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.Type = "feishu"
		cfg.Storage.SavePolicy = "all"
		cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Feishu.RootToken = "app", "secret", "fld-root"

		uri, opts, err := platform.FromConfig(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "fld-root", uri)

		storage, err := platform.Init(uri, opts...)
		require.NoError(t, err)
		state := storage.(*feishu.Store).State().(feishu.StoreState)
		assert.Equal(t, "all", state.Policy)
		assert.Equal(t, cfg.Feishu.BaseURL, state.BaseURL)
	})

	t.Run("Bad policy", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.SavePolicy = "most"
		_, _, err := platform.FromConfig(cfg, nil)
		assert.Error(t, err)
	})
}
