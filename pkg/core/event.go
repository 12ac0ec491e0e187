package core

import "context"

// EventType represents the type of change observed in a store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a persisted note copy.
type Event struct {
	Type      EventType `json:"type"`
	Tag       string    `json:"tag"`
	Path      string    `json:"path"`
	Timestamp int64     `json:"timestamp"` // Unix timestamp
}

// Watchable is implemented by storages that can report changes as they
// happen.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
