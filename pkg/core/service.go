package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Service handles the capture workflow (Source -> Note -> Storage) and
// exposes the read side of the active storage.
type Service struct {
	storage Storage
	logger  *slog.Logger

	mu          sync.RWMutex
	captures    int
	lastCapture string
}

// NewService creates a new Service. A nil logger discards output.
func NewService(storage Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{storage: storage, logger: logger}
}

// Storage returns the underlying storage.
func (s *Service) Storage() Storage {
	return s.storage
}

// Capture fetches a payload from src, turns it into a note filed under tags
// and saves it.
func (s *Service) Capture(ctx context.Context, src Source, tags []string) (SaveResult, error) {
	if src == nil {
		return SaveResult{}, errors.New("capture source cannot be nil")
	}
	payload, err := src.Fetch(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("fetch source: %w", err)
	}
	if payload == nil || strings.TrimSpace(payload.Text) == "" {
		return SaveResult{}, ErrEmptyContent
	}

	note := NewNote(payload.Text, tags...)
	if payload.Type != "" {
		note.Type = payload.Type
	}
	if payload.Origin != nil {
		note.Metadata = payload.Origin.Clone()
	}

	res, err := s.SaveNote(ctx, note)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	s.captures++
	s.lastCapture = res.Note.CreatedAt
	s.mu.Unlock()

	s.logger.Info("note captured", "id", res.Note.ID, "title", res.Note.Title, "result", res.Summary())
	return res, nil
}

// SaveNote saves a note with business validation.
func (s *Service) SaveNote(ctx context.Context, note Note) (SaveResult, error) {
	if strings.TrimSpace(note.Content) == "" {
		return SaveResult{}, ErrEmptyContent
	}
	res, err := s.storage.Save(ctx, note)
	if res.Partial() {
		for _, o := range res.Failed() {
			s.logger.Warn("tag copy not saved", "id", res.Note.ID, "tag", o.Tag, "error", o.Err)
		}
	}
	return res, err
}

// UpdateNote replaces the stored copies of a note.
func (s *Service) UpdateNote(ctx context.Context, note Note) (SaveResult, error) {
	if note.ID == "" {
		return SaveResult{}, errors.New("note ID cannot be empty")
	}
	return s.storage.Update(ctx, note)
}

// Tags lists the tag indices.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.storage.GetAllTags(ctx)
}

// Notes loads the notes filed under tag.
func (s *Service) Notes(ctx context.Context, tag string) ([]Note, error) {
	return s.storage.Load(ctx, tag)
}

// Files lists the notes under tag without their content.
func (s *Service) Files(ctx context.Context, tag string) ([]FileRef, error) {
	return s.storage.ListFiles(ctx, tag)
}

// Note retrieves a single note.
func (s *Service) Note(ctx context.Context, id, tag string) (Note, error) {
	if id == "" {
		return Note{}, errors.New("note ID cannot be empty")
	}
	return s.storage.LoadByID(ctx, id, tag)
}

// AllNotes loads every note when the storage supports an unfiltered scan.
func (s *Service) AllNotes(ctx context.Context) ([]Note, error) {
	scanner, ok := s.storage.(FullScanner)
	if !ok {
		return nil, ErrUnsupported
	}
	return scanner.LoadAll(ctx)
}

// Watch streams storage changes when the storage supports it.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.storage.(Watchable)
	if !ok {
		return nil, ErrUnsupported
	}
	return w.Watch(ctx)
}
