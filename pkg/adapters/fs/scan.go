package fs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// listDir returns the slash separated relative paths of the note files
// directly under the tag directory.
func (s *Store) listDir(tag string) ([]string, error) {
	dir := tagDir(tag)
	entries, err := os.ReadDir(filepath.Join(s.Path, dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tag %q: %w", tag, err)
	}

	var rels []string
	for _, e := range entries {
		if e.IsDir() || !isNoteFile(e.Name()) {
			continue
		}
		rels = append(rels, path.Join(dir, e.Name()))
	}
	return rels, nil
}

// scan returns every note file in the tree, skipping hidden directories such
// as .git and the system directory.
func (s *Store) scan() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.Path), "**/*"+noteExt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	rels := matches[:0]
	for _, m := range matches {
		if isHiddenPath(m) || !isNoteFile(path.Base(m)) {
			continue
		}
		rels = append(rels, m)
	}
	sort.Strings(rels)
	return rels, nil
}

func isNoteFile(name string) bool {
	return strings.HasSuffix(name, noteExt) && !strings.HasPrefix(name, TempFilePrefix)
}

func isHiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// readEntry returns the header of rel, from the index when the file is
// unchanged since it was recorded.
func (s *Store) readEntry(rel string) (*indexEntry, time.Time, error) {
	info, err := os.Stat(filepath.Join(s.Path, filepath.FromSlash(rel)))
	if err != nil {
		return nil, time.Time{}, err
	}
	if entry, ok := s.cache.Get(rel, info.ModTime()); ok {
		return entry, info.ModTime(), nil
	}

	n, err := s.readNote(rel)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &indexEntry{ID: n.ID, Title: n.Title, Tags: n.Tags, CreatedAt: n.CreatedAt}, info.ModTime(), nil
}

// readNote parses rel and records its header in the index. Files without an
// id are identified by their relative path.
func (s *Store) readNote(rel string) (core.Note, error) {
	full := filepath.Join(s.Path, filepath.FromSlash(rel))
	data, err := os.ReadFile(full)
	if err != nil {
		return core.Note{}, fmt.Errorf("read note %q: %w", rel, err)
	}
	n, err := decodeNote(data, full)
	if err != nil {
		return core.Note{}, fmt.Errorf("parse note %q: %w", rel, err)
	}
	if n.ID == "" {
		n.ID = rel
	}
	s.remember(rel, n)
	return n, nil
}

// readNotes parses rels, skipping what cannot be parsed. Notes without tags
// of their own get fallbackTag.
func (s *Store) readNotes(ctx context.Context, rels []string, fallbackTag string) ([]core.Note, error) {
	notes := make([]core.Note, 0, len(rels))
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.readNote(rel)
		if err != nil {
			s.config.Logger.Warn("skipping unreadable note", "path", rel, "error", err)
			continue
		}
		if len(n.Tags) == 0 && fallbackTag != "" {
			n.Tags = []string{fallbackTag}
		}
		notes = append(notes, n)
	}
	s.persistCache()

	notes = core.DedupByID(notes)
	core.SortByRecency(notes)
	return notes, nil
}

// remember records the header of a freshly written or parsed file.
func (s *Store) remember(rel string, n core.Note) {
	info, err := os.Stat(filepath.Join(s.Path, filepath.FromSlash(rel)))
	if err != nil {
		return
	}
	s.cache.Set(rel, &indexEntry{
		ID:           n.ID,
		Title:        n.Title,
		Tags:         n.Tags,
		CreatedAt:    n.CreatedAt,
		LastModified: info.ModTime(),
	})
}

func (s *Store) recordSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastSweep = &now
}
