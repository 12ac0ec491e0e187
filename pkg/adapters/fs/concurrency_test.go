package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwbq/FlashMemo/pkg/core"
	"github.com/wwwbq/FlashMemo/pkg/git"
)

// setupVersionedStore creates a store with git versioning on.
func setupVersionedStore(t *testing.T) (*Store, string) {
	t.Helper()
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(Config{
		Path:       tmpDir,
		Versioning: true,
		Logger:     logger,
	})

	require.NoError(t, store.Initialize(context.Background()))
	return store, tmpDir
}

func TestConcurrentSaves(t *testing.T) {
	store := NewStore(Config{Path: t.TempDir()})
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Save(ctx, core.Note{
				Title:   fmt.Sprintf("note-%02d", i),
				Content: "parallel",
				Tags:    []string{"shared", fmt.Sprintf("own-%02d", i)},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	notes, err := store.Load(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, notes, workers)

	tags, err := store.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, workers+1)
}

func TestVersionedSaveCommits(t *testing.T) {
	store, root := setupVersionedStore(t)
	ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "capture: test")

	_, err := store.Save(ctx, core.Note{Title: "Tracked", Content: "x", Tags: []string{"t"}})
	require.NoError(t, err)

	status, err := store.git.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, status, "save should leave a clean tree")

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), DefaultSystemDir+"/")
	assert.Contains(t, string(ignore), git.LockFile)

	log, err := store.git.Run(ctx, "log", "--format=%s", "-1")
	require.NoError(t, err)
	assert.Equal(t, "capture: test", log)

	_, err = store.Save(context.Background(), core.Note{Title: "Plain", Content: "y", Tags: []string{"t"}})
	require.NoError(t, err)
	log, err = store.git.Run(ctx, "log", "--format=%s", "-1")
	require.NoError(t, err)
	assert.Equal(t, "add(t): Plain", log)
}

func TestLockRespectsHolder(t *testing.T) {
	store, _ := setupVersionedStore(t)
	ctx := context.Background()

	release, err := store.git.Lock(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := store.Save(ctx, core.Note{Content: "waits", Tags: []string{"t"}})
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("save finished while the lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("save did not resume after the lock was released")
	}
}
