package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// DefaultSummaryPrompt frames the retrieved notes for the answer. {context}
// and {query} are substituted.
const DefaultSummaryPrompt = `Answer the question using the notes below. Cite the file name of every note you rely on.

{context}
Question: {query}`

const (
	contextMaxRunes = 500
	unknownFile     = "Unknown_File"
	noMatches       = "(no matching notes were found)"
)

// Agent answers questions, optionally grounded on retrieved notes.
type Agent struct {
	chat          core.Chat
	retriever     *Retriever
	routerPrompt  string
	summaryPrompt string
	limit         int
	logger        *slog.Logger
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithRouterPrompt replaces DefaultRouterPrompt.
func WithRouterPrompt(p string) AgentOption {
	return func(a *Agent) {
		if p != "" {
			a.routerPrompt = p
		}
	}
}

// WithSummaryPrompt replaces DefaultSummaryPrompt.
func WithSummaryPrompt(p string) AgentOption {
	return func(a *Agent) {
		if p != "" {
			a.summaryPrompt = p
		}
	}
}

// WithLimit bounds the notes used as context.
func WithLimit(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAgent creates an Agent over storage and chat.
func NewAgent(storage core.Storage, chat core.Chat, opts ...AgentOption) *Agent {
	a := &Agent{
		chat:          chat,
		routerPrompt:  DefaultRouterPrompt,
		summaryPrompt: DefaultSummaryPrompt,
		limit:         DefaultLimit,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.retriever = NewRetriever(storage, chat, a.logger)
	return a
}

// Ask answers query. Without useKnowledge it is a plain conversational turn;
// with it the answer prompt carries the notes picked by the retriever. Both
// paths record the turn in the chat history.
func (a *Agent) Ask(ctx context.Context, query string, useKnowledge bool) (string, error) {
	if a.chat == nil {
		return "", core.ErrChatUnavailable
	}
	if !useKnowledge {
		return a.chat.Chat(ctx, query, true)
	}

	notes, err := a.retriever.Retrieve(ctx, query, a.routerPrompt, a.limit)
	if err != nil {
		return "", err
	}
	a.logger.Info("knowledge query", "query", query, "notes", len(notes))

	prompt := strings.NewReplacer(
		"{context}", BuildContext(notes),
		"{query}", query,
	).Replace(a.summaryPrompt)
	return a.chat.Chat(ctx, prompt, true)
}

// ClearHistory resets the conversation when the chat client keeps one.
func (a *Agent) ClearHistory() {
	if hc, ok := a.chat.(core.HistoryClearer); ok {
		hc.ClearHistory()
	}
}

// BuildContext renders notes as numbered quote entries with their tags and
// file name, the content flattened to one line and cut to 500 characters.
func BuildContext(notes []core.Note) string {
	if len(notes) == 0 {
		return noMatches
	}
	var sb strings.Builder
	for i, n := range notes {
		file := n.Metadata.String("filename")
		if file == "" {
			file = unknownFile
		}
		content := strings.ReplaceAll(n.Content, "\n", " ")
		if r := []rune(content); len(r) > contextMaxRunes {
			content = string(r[:contextMaxRunes])
		}
		fmt.Fprintf(&sb, "> [Note %d] (tags: [%s], file: %s)\ncontent: %s\n\n",
			i+1, strings.Join(n.Tags, ", "), file, content)
	}
	return sb.String()
}
