package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UncategorizedTag is the tag index used for notes saved without tags.
const UncategorizedTag = "Uncategorized"

// TimestampLayout is the layout used for CreatedAt. Timestamps are produced
// in UTC with a fixed-width fraction so that they sort lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// NoteType classifies the captured content. Only TypeText is produced by the
// capture path today; the others are reserved.
type NoteType string

const (
	TypeText  NoteType = "text"
	TypeImage NoteType = "image"
	TypeAudio NoteType = "audio"
	TypeMixed NoteType = "mixed"
)

// ParseNoteType maps a stored value back to a NoteType, falling back to TypeText.
func ParseNoteType(s string) NoteType {
	switch t := NoteType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeText, TypeImage, TypeAudio, TypeMixed:
		return t
	default:
		return TypeText
	}
}

// Metadata carries backend specific provenance (origin, filename, document
// token) that is not part of the display model but must survive a round trip.
type Metadata map[string]any

// String returns the value stored under key if it is a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// Clone returns a shallow copy of the map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Attachment is a file attached to a note. It has no lifecycle of its own.
type Attachment struct {
	Type     string         `json:"type" yaml:"type"`
	Path     string         `json:"path" yaml:"path"`
	Filename string         `json:"filename" yaml:"filename"`
	Meta     map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Note is the central entity of the domain: a captured unit of content filed
// under one or more tags.
type Note struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Content     string       `json:"content" yaml:"content"`
	Tags        []string     `json:"tags" yaml:"tags"`
	Type        NoteType     `json:"type" yaml:"type"`
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
	CreatedAt   string       `json:"created_at" yaml:"created_at"`
	Metadata    Metadata     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NewNote creates a text note with a fresh id and creation timestamp.
func NewNote(content string, tags ...string) Note {
	return Note{
		ID:          uuid.NewString(),
		Content:     content,
		Tags:        tags,
		Type:        TypeText,
		Attachments: []Attachment{},
		CreatedAt:   Now(),
		Metadata:    Metadata{},
	}
}

// Now returns the current time formatted with TimestampLayout.
func Now() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Prepare fills the defaults a note needs before it is written: id, creation
// timestamp, type and title. Existing values are never replaced, so the id and
// CreatedAt of a previously saved note stay untouched.
func (n *Note) Prepare() {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = Now()
	}
	if n.Type == "" {
		n.Type = TypeText
	}
	if n.Attachments == nil {
		n.Attachments = []Attachment{}
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle(n.CreatedAt, n.Content)
	}
}

// DefaultTitle builds "<date>_<snippet>" from the creation date and the first
// ten characters of the content.
func DefaultTitle(createdAt, content string) string {
	date, _, _ := strings.Cut(createdAt, "T")
	return date + "_" + Sanitize(truncate(content, 10), SnippetMaxLen)
}

// TargetTags returns the tag indices the note is filed under: its own tags in
// order, without blanks or duplicates, or the sentinel tag when none remain.
func (n Note) TargetTags() []string {
	tags := NormalizeTags(n.Tags)
	if len(tags) == 0 {
		return []string{UncategorizedTag}
	}
	return tags
}

// HasTag reports whether tag is one of the note's own tags.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags trims tags and drops empty and repeated entries, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SortByRecency sorts notes by CreatedAt, newest first.
func SortByRecency(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt > notes[j].CreatedAt
	})
}

// DedupByID keeps the first note seen for every id.
func DedupByID(notes []Note) []Note {
	seen := make(map[string]bool, len(notes))
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}
