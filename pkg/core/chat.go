package core

import "context"

// Chat is the chat-completion capability. Calls with useHistory=false are
// stateless and must not touch the conversation history.
type Chat interface {
	Chat(ctx context.Context, prompt string, useHistory bool) (string, error)
}

// HistoryClearer is implemented by chat clients that keep a conversation.
type HistoryClearer interface {
	ClearHistory()
}
