package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	IndexSize     int        `json:"index_size"`
	Versioning    bool       `json:"versioning"`
	Policy        string     `json:"save_policy"`
	WatcherActive bool       `json:"watcher_active"`
	LastSweep     *time.Time `json:"last_sweep,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:          s.Path,
		SystemDir:     s.config.SystemDir,
		IndexSize:     s.cache.Len(),
		Versioning:    s.config.Versioning,
		Policy:        string(s.config.Policy),
		WatcherActive: s.watcherActive,
		LastSweep:     s.lastSweep,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "local-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}
