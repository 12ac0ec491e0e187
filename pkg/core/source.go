package core

import "context"

// CapturePayload is what a Source hands to the capture workflow.
type CapturePayload struct {
	Text   string
	Type   NoteType
	Raw    any
	Origin Metadata
}

// Source produces content to capture. A nil payload with a nil error means
// there is nothing to capture.
type Source interface {
	Fetch(ctx context.Context) (*CapturePayload, error)
}
