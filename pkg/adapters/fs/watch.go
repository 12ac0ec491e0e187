package fs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Watch reports changes to note files until ctx is done. The returned
// channel is closed when watching stops. Tag directories created while
// watching are picked up automatically.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}
	tags, err := s.GetAllTags(ctx)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, tag := range tags {
		if err := watcher.Add(filepath.Join(s.Path, tag)); err != nil {
			s.reportWatchError(fmt.Errorf("failed to watch tag %q: %w", tag, err))
		}
	}

	events := make(chan core.Event, 64)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer watcher.Close()
		defer s.setWatcherActive(false)

		for {
			select {
			case <-ctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				s.handleFSEvent(ctx, watcher, event, events)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				s.reportWatchError(err)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportWatchError(fmt.Errorf("watcher panic: %w", err))
	}))

	return events, nil
}

func (s *Store) handleFSEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, out chan<- core.Event) {
	rel, err := filepath.Rel(s.Path, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if isHiddenPath(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				s.reportWatchError(fmt.Errorf("failed to watch tag %q: %w", rel, err))
			}
			return
		}
	}

	if !isNoteFile(path.Base(rel)) {
		return
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create):
		eType = core.EventCreate
	case event.Has(fsnotify.Write):
		eType = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	default:
		return
	}

	tag, _, found := strings.Cut(rel, "/")
	if !found {
		tag = ""
	}

	s.config.Logger.Debug("note changed", "type", eType, "path", rel)
	select {
	case out <- core.Event{Type: eType, Tag: tag, Path: rel, Timestamp: time.Now().Unix()}:
	case <-ctx.Done():
	}
}

func (s *Store) reportWatchError(err error) {
	s.config.Logger.Error("watcher error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}
