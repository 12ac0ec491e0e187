package core

import "context"

// FileRef is a lightweight listing entry. ID is whatever handle the backend
// accepts in LoadByID: the note id for local files, the document token for
// remote documents.
type FileRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Storage defines the contract for persisting and retrieving notes.
// A tag is treated as an index (a directory or a remote folder) and a note
// with several tags has one physical copy per tag.
type Storage interface {
	// Save writes the note under every tag in note.Tags, or under
	// UncategorizedTag when it has none. Defaults (id, title, timestamp) are
	// filled before writing and returned in SaveResult.Note.
	Save(ctx context.Context, note Note) (SaveResult, error)

	// Load returns the notes filed under tag, deduplicated by id and sorted
	// by CreatedAt descending. An empty tag yields no notes. Units that
	// cannot be parsed are skipped.
	Load(ctx context.Context, tag string) ([]Note, error)

	// GetAllTags enumerates the tag indices, sorted lexicographically.
	GetAllTags(ctx context.Context) ([]string, error)

	// ListFiles lists the notes under tag without materializing content.
	ListFiles(ctx context.Context, tag string) ([]FileRef, error)

	// LoadByID looks up one note within a tag index. It returns an error
	// wrapping ErrNotFound when nothing matches.
	LoadByID(ctx context.Context, id, tag string) (Note, error)

	// Update supersedes the prior copies of the note and saves it again.
	// Finding no prior copy is not an error.
	Update(ctx context.Context, note Note) (SaveResult, error)
}

// Initializer is implemented by storages that need to prepare their backing
// store (directories, version control) before use.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// FullScanner is implemented by storages that can load every note without
// a tag filter.
type FullScanner interface {
	LoadAll(ctx context.Context) ([]Note, error)
}

// contextKey is unexported to avoid collisions.
type contextKey string

// ChangeReasonKey is the context key carrying a change description. Versioned
// storages use it as the commit message.
const ChangeReasonKey contextKey = "change_reason"
