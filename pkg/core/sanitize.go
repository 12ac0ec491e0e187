package core

import "strings"

// Bounds applied when a string is used as a file or document name.
const (
	TitleMaxLen   = 60
	SnippetMaxLen = 50
)

var unsafeNameChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
	"\r\n", "_", "\n", "_", "\r", "_",
)

// Sanitize makes s safe to use as a single path element: path separators,
// reserved characters and newlines become "_", surrounding space is trimmed
// and the result is cut to at most max characters.
func Sanitize(s string, max int) string {
	clean := strings.TrimSpace(unsafeNameChars.Replace(s))
	clean = strings.TrimSpace(truncate(clean, max))
	switch clean {
	case ".", "..":
		return strings.Repeat("_", len(clean))
	}
	return clean
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
