package fs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwbq/FlashMemo/pkg/adapters/fs"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

func TestStore_Watch(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Existing tag directory is watched from the start.
	_, err := store.Save(ctx, core.Note{Title: "seed", Content: "x", Tags: []string{"t"}})
	require.NoError(t, err)

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	_, err = store.Save(ctx, core.Note{Title: "watched", Content: "y", Tags: []string{"t"}})
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path != "t/watched.md" {
				continue
			}
			assert.Equal(t, "t", ev.Tag)
			assert.Contains(t, []core.EventType{core.EventCreate, core.EventModify}, ev.Type)

			state := store.State().(fs.StoreState)
			assert.True(t, state.WatcherActive)

			cancel()
			for range events {
			}
			assert.False(t, store.State().(fs.StoreState).WatcherActive)
			return
		case <-deadline:
			t.Fatal("timed out waiting for watch event")
		}
	}
}
