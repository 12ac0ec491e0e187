package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wwwbq/FlashMemo/pkg/core"
	"github.com/wwwbq/FlashMemo/pkg/git"
)

// DefaultSystemDir holds the header index and is never treated as a tag.
const DefaultSystemDir = ".flashmemo"

const noteExt = ".md"

// Config holds the configuration for the local Markdown store.
type Config struct {
	Path         string
	Versioning   bool // stage and commit every change with git
	SystemDir    string
	Policy       core.SuccessPolicy
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// Store persists notes as Markdown files, one directory per tag and one file
// per note copy:
//
//	<root>/<tag>/<title>.md
type Store struct {
	Path   string
	config Config
	git    *git.Client
	cache  *cache

	writeMu sync.Mutex

	mu            sync.RWMutex
	watcherActive bool
	lastSweep     *time.Time
}

// NewStore creates a new local store. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Policy == "" {
		config.Policy = core.PolicyAny
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Path:   config.Path,
		config: config,
		git:    git.NewClient(config.Path, config.Logger),
		cache:  newCache(config.Path, config.SystemDir),
	}
}

// Initialize creates the root directory, loads the header index and, with
// versioning on, prepares the git repository.
func (s *Store) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := s.cache.Load(); err != nil {
		s.config.Logger.Warn("header index unreadable, starting fresh", "error", err)
	}

	if !s.config.Versioning {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}
	if !s.git.IsRepo() {
		if err := s.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
	}

	modified, err := s.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if modified {
		if err := s.git.Stage(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := s.git.Commit(ctx, git.FormatMessage(git.KindChore, "", "ignore flashmemo system files", "")); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the system directory and the lock file out of git.
func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range []string{s.config.SystemDir + "/", git.LockFile} {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Save implements core.Storage.
func (s *Store) Save(ctx context.Context, note core.Note) (core.SaveResult, error) {
	note.Prepare()

	unlock, err := s.lock(ctx)
	if err != nil {
		return core.SaveResult{Note: note}, err
	}
	defer unlock()

	outcomes, touched := s.writeCopies(note)
	s.commit(ctx, touched, git.FormatMessage(git.KindAdd, commitScope(note), note.Title, "id: "+note.ID))
	s.persistCache()

	return core.NewSaveResult(note, outcomes, s.config.Policy)
}

// Update implements core.Storage. Prior copies are searched across the whole
// tree since the note may have been filed under tags it no longer carries.
func (s *Store) Update(ctx context.Context, note core.Note) (core.SaveResult, error) {
	note.Prepare()

	unlock, err := s.lock(ctx)
	if err != nil {
		return core.SaveResult{Note: note}, err
	}
	defer unlock()

	stale, err := s.findCopies(ctx, note.ID)
	if err != nil {
		return core.SaveResult{Note: note}, err
	}
	if len(stale) == 0 {
		s.config.Logger.Warn("update found no prior copies, creating", "id", note.ID)
	}

	// Once the first copy is removed the update runs to completion.
	ctx = context.WithoutCancel(ctx)
	removed := s.removeCopies(stale, note.ID)
	outcomes, touched := s.writeCopies(note)
	s.commit(ctx, append(removed, touched...), git.FormatMessage(git.KindEdit, commitScope(note), note.Title, "id: "+note.ID))
	s.persistCache()

	return core.NewSaveResult(note, outcomes, s.config.Policy)
}

// Load implements core.Storage.
func (s *Store) Load(ctx context.Context, tag string) ([]core.Note, error) {
	if tag == "" {
		return nil, nil
	}
	rels, err := s.listDir(tag)
	if err != nil {
		return nil, err
	}
	return s.readNotes(ctx, rels, tag)
}

// LoadAll returns every note in the tree, deduplicated by id and sorted by
// CreatedAt descending.
func (s *Store) LoadAll(ctx context.Context) ([]core.Note, error) {
	rels, err := s.scan()
	if err != nil {
		return nil, err
	}
	return s.readNotes(ctx, rels, "")
}

// GetAllTags implements core.Storage.
func (s *Store) GetAllTags(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store root: %w", err)
	}

	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			tags = append(tags, e.Name())
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ListFiles implements core.Storage. Newest files come first.
func (s *Store) ListFiles(ctx context.Context, tag string) ([]core.FileRef, error) {
	rels, err := s.listDir(tag)
	if err != nil {
		return nil, err
	}

	type ref struct {
		core.FileRef
		mtime time.Time
	}
	refs := make([]ref, 0, len(rels))
	for _, rel := range rels {
		entry, mtime, err := s.readEntry(rel)
		if err != nil {
			s.config.Logger.Warn("skipping unreadable note", "path", rel, "error", err)
			continue
		}
		refs = append(refs, ref{core.FileRef{ID: entry.ID, Name: entry.Title}, mtime})
	}
	s.persistCache()

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].mtime.After(refs[j].mtime) })
	out := make([]core.FileRef, len(refs))
	for i, r := range refs {
		out[i] = r.FileRef
	}
	return out, nil
}

// LoadByID implements core.Storage. An empty tag searches the whole tree.
func (s *Store) LoadByID(ctx context.Context, id, tag string) (core.Note, error) {
	var rels []string
	var err error
	if tag == "" {
		rels, err = s.scan()
	} else {
		rels, err = s.listDir(tag)
	}
	if err != nil {
		return core.Note{}, err
	}

	for _, rel := range rels {
		entry, _, err := s.readEntry(rel)
		if err != nil || entry.ID != id {
			continue
		}
		n, err := s.readNote(rel)
		if err != nil {
			return core.Note{}, err
		}
		if len(n.Tags) == 0 && tag != "" {
			n.Tags = []string{tag}
		}
		return n, nil
	}
	return core.Note{}, fmt.Errorf("note %q under tag %q: %w", id, tag, core.ErrNotFound)
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	s.writeMu.Lock()
	if !s.config.Versioning {
		return s.writeMu.Unlock, nil
	}
	release, err := s.git.Lock(ctx)
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	return func() {
		release()
		s.writeMu.Unlock()
	}, nil
}

// writeCopies writes one file per target tag.
func (s *Store) writeCopies(note core.Note) ([]core.TagOutcome, []string) {
	data := encodeNote(note)
	var outcomes []core.TagOutcome
	var touched []string

	for _, tag := range note.TargetTags() {
		rel := s.notePath(tag, note)
		full := filepath.Join(s.Path, filepath.FromSlash(rel))
		if err := writeFileAtomic(full, data, 0644); err != nil {
			s.config.Logger.Warn("failed to save note copy", "tag", tag, "path", rel, "error", err)
			outcomes = append(outcomes, core.TagOutcome{Tag: tag, Err: err})
			continue
		}
		s.remember(rel, note)
		outcomes = append(outcomes, core.TagOutcome{Tag: tag, Ref: rel})
		touched = append(touched, rel)
	}
	return outcomes, touched
}

// notePath picks <tag>/<title>.md. When another file already sits there,
// including one without a readable header, the id is appended to the name.
func (s *Store) notePath(tag string, note core.Note) string {
	dir := tagDir(tag)
	name := core.Sanitize(note.Title, core.TitleMaxLen)
	if name == "" {
		name = note.ID
	}
	if strings.HasPrefix(name, ".") {
		name = "_" + name
	}

	short := note.ID
	if len(short) > 8 {
		short = short[:8]
	}
	candidates := []string{name, name + "_" + short, name + "_" + note.ID}

	var rel string
	for _, c := range candidates {
		rel = path.Join(dir, core.Sanitize(c, len(c))+noteExt)
		if s.ownsPath(rel, note.ID) {
			return rel
		}
	}
	return rel
}

// ownsPath reports whether rel is free or already holds a copy of id.
func (s *Store) ownsPath(rel, id string) bool {
	if _, err := os.Lstat(filepath.Join(s.Path, filepath.FromSlash(rel))); os.IsNotExist(err) {
		return true
	}
	entry, _, err := s.readEntry(rel)
	return err == nil && entry.ID == id
}

func tagDir(tag string) string {
	dir := core.Sanitize(tag, core.TitleMaxLen)
	if dir == "" || strings.HasPrefix(dir, ".") {
		dir = "_" + dir
	}
	return dir
}

// findCopies returns every file in the tree whose header carries id.
func (s *Store) findCopies(ctx context.Context, id string) ([]string, error) {
	rels, err := s.scan()
	if err != nil {
		return nil, err
	}

	var matches []string
	keep := make(map[string]bool, len(rels))
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keep[rel] = true
		entry, _, err := s.readEntry(rel)
		if err != nil || entry.ID != id {
			continue
		}
		matches = append(matches, rel)
	}

	s.cache.Prune(keep)
	s.recordSweep()
	return matches, nil
}

// removeCopies deletes rels and returns the ones actually removed.
func (s *Store) removeCopies(rels []string, id string) []string {
	var removed []string
	for _, rel := range rels {
		if err := os.Remove(filepath.Join(s.Path, filepath.FromSlash(rel))); err != nil {
			s.config.Logger.Warn("failed to delete old copy", "path", rel, "error", err)
			continue
		}
		s.cache.Delete(rel)
		removed = append(removed, rel)
		s.config.Logger.Debug("deleted old copy", "path", rel, "id", id)
	}
	return removed
}

// commit stages and commits paths when versioning is on. Failures are logged;
// the files are already written.
func (s *Store) commit(ctx context.Context, paths []string, msg string) {
	if !s.config.Versioning || len(paths) == 0 {
		return
	}
	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		msg = git.AppendTrailer(reason)
	}
	if err := s.git.Stage(ctx, paths...); err != nil {
		s.config.Logger.Warn("failed to stage changes", "error", err)
		return
	}
	if err := s.git.Commit(ctx, msg); err != nil {
		s.config.Logger.Warn("failed to commit changes", "error", err)
	}
}

// commitScope is the single tag a note is filed under, or empty when it
// has several.
func commitScope(note core.Note) string {
	if tags := note.TargetTags(); len(tags) == 1 {
		return tags[0]
	}
	return ""
}

func (s *Store) persistCache() {
	if err := s.cache.Save(); err != nil {
		s.config.Logger.Warn("failed to save header index", "error", err)
	}
}

var _ core.Storage = (*Store)(nil)
var _ core.Initializer = (*Store)(nil)
var _ core.FullScanner = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
