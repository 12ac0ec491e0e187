package fs

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

var errNoHeader = errors.New("missing note header")

// headerDelimiter matches a line made only of "---".
var headerDelimiter = regexp.MustCompile(`(?m)^---[ \t]*\r?$`)

// encodeNote renders the header block followed by a blank line and the body.
func encodeNote(n core.Note) []byte {
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("id: " + n.ID + "\n")
	sb.WriteString("title: " + oneLine(n.Title) + "\n")
	sb.WriteString("created_at: " + n.CreatedAt + "\n")
	sb.WriteString("tags: [" + strings.Join(n.TargetTags(), ", ") + "]\n")
	sb.WriteString("origin: " + oneLine(n.Metadata.String("origin")) + "\n")
	sb.WriteString("---\n\n")
	sb.WriteString(n.Content)
	return []byte(sb.String())
}

// decodeNote parses a note file. filename is used as the title fallback and
// is reported back in Metadata["filename"].
func decodeNote(data []byte, filename string) (core.Note, error) {
	text := strings.TrimLeft(string(data), " \t\r\n")
	if !strings.HasPrefix(text, "---") {
		return core.Note{}, errNoHeader
	}

	// pre, header, body: later "---" lines belong to the body.
	parts := headerDelimiter.Split(text, 3)
	if len(parts) < 3 {
		return core.Note{}, errNoHeader
	}

	fields := parseHeader(parts[1])
	base := filepath.Base(filename)

	n := core.Note{
		ID:          fields["id"],
		Title:       fields["title"],
		Content:     strings.TrimSpace(parts[2]),
		Tags:        parseTags(fields["tags"]),
		Type:        core.TypeText,
		Attachments: []core.Attachment{},
		CreatedAt:   fields["created_at"],
		Metadata:    core.Metadata{"filename": base},
	}
	if n.Title == "" {
		n.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if origin := fields["origin"]; origin != "" {
		n.Metadata["origin"] = origin
	}
	return n, nil
}

func parseHeader(block string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}

// parseTags reads "[a, b]" (brackets optional) into its trimmed, non-empty items.
func parseTags(raw string) []string {
	raw = strings.NewReplacer("[", "", "]", "").Replace(raw)
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine keeps header values on a single line.
func oneLine(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}
