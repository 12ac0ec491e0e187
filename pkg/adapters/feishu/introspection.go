package feishu

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	BaseURL    string     `json:"base_url"`
	RootToken  string     `json:"root_token"`
	Folders    int        `json:"cached_folders"`
	Documents  int        `json:"cached_documents"`
	TokenValid bool       `json:"token_valid"`
	Workers    int        `json:"workers"`
	Policy     string     `json:"save_policy"`
	Fetched    int        `json:"fetched"`
	Discarded  int        `json:"discarded"`
	LastLoad   *time.Time `json:"last_load,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreState{
		BaseURL:    s.config.BaseURL,
		RootToken:  s.config.RootToken,
		Folders:    s.folders.len(),
		Documents:  s.docs.Len(),
		TokenValid: s.client.tokens.valid(),
		Workers:    s.config.Workers,
		Policy:     string(s.config.Policy),
		Fetched:    s.fetched,
		Discarded:  s.discarded,
		LastLoad:   s.lastLoad,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "feishu-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
