package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwbq/FlashMemo/pkg/adapters/fs"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

func setupStore(t *testing.T) (*fs.Store, string) {
	t.Helper()
	root := t.TempDir()
	store := fs.NewStore(fs.Config{Path: root})
	require.NoError(t, store.Initialize(context.Background()))
	return store, root
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			n++
		}
	}
	return n
}

// countingContext reports cancellation once Err has been called more than
// limit times.
type countingContext struct {
	context.Context
	calls atomic.Int32
	limit int32
}

func (c *countingContext) Err() error {
	if c.calls.Add(1) > c.limit {
		return context.Canceled
	}
	return nil
}

func cancelAfter(n int32) context.Context {
	return &countingContext{Context: context.Background(), limit: n}
}

func TestStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("One copy per tag", func(t *testing.T) {
		store, root := setupStore(t)

		res, err := store.Save(ctx, core.Note{Content: "Hello", Tags: []string{"work", "todo"}})
		require.NoError(t, err)
		assert.True(t, res.OK)
		require.Len(t, res.Outcomes, 2)

		assert.Equal(t, 1, countFiles(t, filepath.Join(root, "work")))
		assert.Equal(t, 1, countFiles(t, filepath.Join(root, "todo")))

		for _, tag := range []string{"work", "todo"} {
			notes, err := store.Load(ctx, tag)
			require.NoError(t, err)
			require.Len(t, notes, 1)
			assert.Equal(t, "Hello", notes[0].Content)
			assert.Equal(t, res.Note.ID, notes[0].ID)
			assert.ElementsMatch(t, []string{"work", "todo"}, notes[0].Tags)
		}
	})

	t.Run("Fills defaults", func(t *testing.T) {
		store, _ := setupStore(t)

		res, err := store.Save(ctx, core.Note{Content: "remember this", Tags: []string{"x"}})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Note.ID)
		assert.NotEmpty(t, res.Note.CreatedAt)
		assert.True(t, strings.HasSuffix(res.Note.Title, "_remember t"), res.Note.Title)
		assert.Equal(t, "x/"+res.Note.Title+".md", res.Outcomes[0].Ref)
	})

	t.Run("Untagged notes use the sentinel", func(t *testing.T) {
		store, _ := setupStore(t)

		res, err := store.Save(ctx, core.Note{Content: "loose"})
		require.NoError(t, err)

		tags, err := store.GetAllTags(ctx)
		require.NoError(t, err)
		assert.Contains(t, tags, core.UncategorizedTag)

		notes, err := store.Load(ctx, core.UncategorizedTag)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, res.Note.ID, notes[0].ID)
	})

	t.Run("Unsafe titles stay inside the tag directory", func(t *testing.T) {
		store, root := setupStore(t)

		_, err := store.Save(ctx, core.Note{Title: "../a/b:c*d", Content: "x", Tags: []string{"../escape"}})
		require.NoError(t, err)

		tags, err := store.GetAllTags(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, 1, countFiles(t, filepath.Join(root, tags[0])))
		_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Same title from different notes does not overwrite", func(t *testing.T) {
		store, root := setupStore(t)

		_, err := store.Save(ctx, core.Note{Title: "Same", Content: "one", Tags: []string{"t"}})
		require.NoError(t, err)
		_, err = store.Save(ctx, core.Note{Title: "Same", Content: "two", Tags: []string{"t"}})
		require.NoError(t, err)

		assert.Equal(t, 2, countFiles(t, filepath.Join(root, "t")))
	})

	t.Run("Files without a header are never overwritten", func(t *testing.T) {
		store, root := setupStore(t)
		handwritten := filepath.Join(root, "work", "Meeting.md")
		require.NoError(t, os.MkdirAll(filepath.Dir(handwritten), 0755))
		require.NoError(t, os.WriteFile(handwritten, []byte("# my handwritten notes\n"), 0644))

		res, err := store.Save(ctx, core.Note{Title: "Meeting", Content: "agenda", Tags: []string{"work"}})
		require.NoError(t, err)
		assert.NotEqual(t, "work/Meeting.md", res.Outcomes[0].Ref)

		data, err := os.ReadFile(handwritten)
		require.NoError(t, err)
		assert.Equal(t, "# my handwritten notes\n", string(data))
		assert.Equal(t, 2, countFiles(t, filepath.Join(root, "work")))

		notes, err := store.Load(ctx, "work")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "agenda", notes[0].Content)

		// Saving the same note again reuses its own file.
		_, err = store.Save(ctx, res.Note)
		require.NoError(t, err)
		assert.Equal(t, 2, countFiles(t, filepath.Join(root, "work")))
	})

	t.Run("Metadata origin round trips", func(t *testing.T) {
		store, _ := setupStore(t)

		res, err := store.Save(ctx, core.Note{Content: "x", Tags: []string{"t"}, Metadata: core.Metadata{"origin": "https://example.com"}})
		require.NoError(t, err)

		got, err := store.LoadByID(ctx, res.Note.ID, "t")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got.Metadata.String("origin"))
		assert.NotEmpty(t, got.Metadata.String("filename"))
	})
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty tag returns nothing", func(t *testing.T) {
		store, _ := setupStore(t)
		_, err := store.Save(ctx, core.Note{Content: "x", Tags: []string{"a"}})
		require.NoError(t, err)

		notes, err := store.Load(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("Unknown tag returns nothing", func(t *testing.T) {
		store, _ := setupStore(t)
		notes, err := store.Load(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("Sorted newest first and malformed files skipped", func(t *testing.T) {
		store, root := setupStore(t)

		for _, c := range []string{"2024-01-01T00:00:00", "2024-03-01T00:00:00", "2024-02-01T00:00:00"} {
			_, err := store.Save(ctx, core.Note{Content: c, CreatedAt: c, Tags: []string{"t"}})
			require.NoError(t, err)
		}
		require.NoError(t, os.WriteFile(filepath.Join(root, "t", "broken.md"), []byte("no header here"), 0644))

		notes, err := store.Load(ctx, "t")
		require.NoError(t, err)
		require.Len(t, notes, 3)
		assert.Equal(t, "2024-03-01T00:00:00", notes[0].CreatedAt)
		assert.Equal(t, "2024-02-01T00:00:00", notes[1].CreatedAt)
		assert.Equal(t, "2024-01-01T00:00:00", notes[2].CreatedAt)
	})

	t.Run("Folder tag backfills notes without tags", func(t *testing.T) {
		store, root := setupStore(t)
		require.NoError(t, os.MkdirAll(filepath.Join(root, "ideas"), 0755))
		raw := "---\nid: hand\ntitle: Hand written\ncreated_at: 2024\ntags: []\n---\n\nbody"
		require.NoError(t, os.WriteFile(filepath.Join(root, "ideas", "hand.md"), []byte(raw), 0644))

		notes, err := store.Load(ctx, "ideas")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, []string{"ideas"}, notes[0].Tags)
	})

	t.Run("LoadAll deduplicates across tags", func(t *testing.T) {
		store, _ := setupStore(t)
		_, err := store.Save(ctx, core.Note{Content: "multi", Tags: []string{"a", "b"}})
		require.NoError(t, err)
		_, err = store.Save(ctx, core.Note{Content: "single", Tags: []string{"c"}})
		require.NoError(t, err)

		notes, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
	})
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Twice leaves one copy per tag", func(t *testing.T) {
		store, root := setupStore(t)

		res, err := store.Save(ctx, core.Note{Content: "v1", Tags: []string{"work", "todo"}})
		require.NoError(t, err)

		n := res.Note
		n.Content = "v2"
		_, err = store.Update(ctx, n)
		require.NoError(t, err)
		_, err = store.Update(ctx, n)
		require.NoError(t, err)

		assert.Equal(t, 1, countFiles(t, filepath.Join(root, "work")))
		assert.Equal(t, 1, countFiles(t, filepath.Join(root, "todo")))

		notes, err := store.Load(ctx, "work")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "v2", notes[0].Content)
		assert.Equal(t, n.CreatedAt, notes[0].CreatedAt)
	})

	t.Run("Removes copies under dropped tags and renamed titles", func(t *testing.T) {
		store, root := setupStore(t)

		res, err := store.Save(ctx, core.Note{Title: "Old", Content: "v1", Tags: []string{"keep", "drop"}})
		require.NoError(t, err)

		n := res.Note
		n.Title = "New"
		n.Tags = []string{"keep"}
		_, err = store.Update(ctx, n)
		require.NoError(t, err)

		assert.Equal(t, 0, countFiles(t, filepath.Join(root, "drop")))
		assert.FileExists(t, filepath.Join(root, "keep", "New.md"))
		assert.NoFileExists(t, filepath.Join(root, "keep", "Old.md"))
	})

	t.Run("Cancellation never leaves a note without copies", func(t *testing.T) {
		for after := int32(0); after < 6; after++ {
			store, root := setupStore(t)

			res, err := store.Save(ctx, core.Note{Title: "a", Content: "v1", Tags: []string{"a", "b"}})
			require.NoError(t, err)

			n := res.Note
			n.Content = "v2"
			_, err = store.Update(cancelAfter(after), n)

			want := "v2"
			if err != nil {
				assert.ErrorIs(t, err, context.Canceled)
				want = "v1"
			}
			for _, tag := range []string{"a", "b"} {
				assert.Equal(t, 1, countFiles(t, filepath.Join(root, tag)), "tag %s after %d checks", tag, after)
				notes, err := store.Load(ctx, tag)
				require.NoError(t, err)
				require.Len(t, notes, 1)
				assert.Equal(t, want, notes[0].Content)
			}
		}
	})

	t.Run("No prior copy behaves as create", func(t *testing.T) {
		store, root := setupStore(t)

		res, err := store.Update(ctx, core.Note{ID: "fresh", Content: "new", Tags: []string{"t"}})
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 1, countFiles(t, filepath.Join(root, "t")))
	})
}

func TestStore_ListFilesAndLoadByID(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	res, err := store.Save(ctx, core.Note{Title: "First", Content: "one", Tags: []string{"t"}})
	require.NoError(t, err)

	files, err := store.ListFiles(ctx, "t")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, core.FileRef{ID: res.Note.ID, Name: "First"}, files[0])

	got, err := store.LoadByID(ctx, res.Note.ID, "t")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Content)

	got, err = store.LoadByID(ctx, res.Note.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	_, err = store.LoadByID(ctx, "missing", "t")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_GetAllTags(t *testing.T) {
	ctx := context.Background()
	store, root := setupStore(t)

	for _, tag := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Save(ctx, core.Note{Content: tag, Tags: []string{tag}})
		require.NoError(t, err)
	}

	tags, err := store.GetAllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, tags)

	_, err = os.Stat(filepath.Join(root, fs.DefaultSystemDir))
	assert.NoError(t, err, "header index should be persisted")
}

func TestStore_State(t *testing.T) {
	store, root := setupStore(t)
	_, err := store.Update(context.Background(), core.Note{Content: "x", Tags: []string{"t"}})
	require.NoError(t, err)

	state, ok := store.State().(fs.StoreState)
	require.True(t, ok)
	assert.Equal(t, root, state.Path)
	assert.Equal(t, "any", state.Policy)
	assert.Equal(t, 1, state.IndexSize)
	assert.NotNil(t, state.LastSweep)
	assert.Equal(t, "local-store", store.ComponentType())
}
