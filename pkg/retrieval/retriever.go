// Package retrieval selects notes relevant to a free-text query by letting
// a chat model pick tag indices, and answers questions over those notes.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// DefaultLimit bounds the number of notes Retrieve returns.
const DefaultLimit = 20

// NoneToken is the reply token meaning "no tag applies".
const NoneToken = "None"

// DefaultRouterPrompt asks the model for a comma separated tag list.
// {all_tags} and {query} are substituted.
const DefaultRouterPrompt = `You route questions to note folders.
Available tags: {all_tags}
Question: {query}
Reply with the relevant tags from the list, separated by commas, and nothing else.
If no tag is relevant reply with None.`

// Retriever implements tag-routed retrieval over a Storage.
type Retriever struct {
	storage core.Storage
	chat    core.Chat
	logger  *slog.Logger
}

// NewRetriever creates a Retriever. A nil logger discards output.
func NewRetriever(storage core.Storage, chat core.Chat, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Retriever{storage: storage, chat: chat, logger: logger}
}

// Retrieve asks the chat model which tags fit query, loads those tags and
// returns at most limit notes, unique by id and newest first. An empty
// template uses DefaultRouterPrompt; a limit <= 0 uses DefaultLimit.
func (r *Retriever) Retrieve(ctx context.Context, query, template string, limit int) ([]core.Note, error) {
	if r.chat == nil {
		return nil, core.ErrChatUnavailable
	}
	if template == "" {
		template = DefaultRouterPrompt
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	all, err := r.storage.GetAllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	prompt := RouterPrompt(template, all, query)
	reply, err := r.chat.Chat(ctx, prompt, false)
	if err != nil {
		return nil, fmt.Errorf("route query: %w", err)
	}
	selected := ParseTags(reply, all)
	r.logger.Debug("router selected tags", "query", query, "reply", reply, "tags", selected)

	seen := make(map[string]bool)
	var candidates []core.Note
	for _, tag := range selected {
		notes, err := r.storage.Load(ctx, tag)
		if err != nil {
			r.logger.Warn("tag not loaded", "tag", tag, "error", err)
			continue
		}
		for _, n := range notes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			candidates = append(candidates, n)
		}
	}

	core.SortByRecency(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// RouterPrompt substitutes "[a, b, c]" for {all_tags} and the query for
// {query}.
func RouterPrompt(template string, tags []string, query string) string {
	return strings.NewReplacer(
		"{all_tags}", "["+strings.Join(tags, ", ")+"]",
		"{query}", query,
	).Replace(template)
}

// ParseTags reads a comma separated reply, keeping the entries found in
// known, in reply order and without repeats. A None entry selects nothing
// by itself but does not discard the other entries.
func ParseTags(reply string, known []string) []string {
	valid := make(map[string]bool, len(known))
	for _, t := range known {
		valid[t] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, field := range strings.Split(reply, ",") {
		tag := trimTag(field)
		if !valid[tag] {
			// A sentence-ending period is not part of the tag.
			tag = trimTag(strings.TrimRight(tag, "."))
		}
		if tag == "" || tag == NoneToken || !valid[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func trimTag(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`[]"))
}
