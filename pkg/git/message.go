package git

import "strings"

// Commit kinds used in generated messages.
const (
	KindAdd    = "add"
	KindEdit   = "edit"
	KindRemove = "remove"
	KindChore  = "chore"
)

// Trailer marks commits made by flashmemo.
const Trailer = "Saved-by: flashmemo"

// FormatMessage builds a commit message of the form
//
//	<kind>(<scope>): <subject>
//
//	<body>
//
//	Saved-by: flashmemo
func FormatMessage(kind, scope, subject, body string) string {
	var sb strings.Builder

	if kind == "" {
		kind = KindChore
	}
	sb.WriteString(kind)
	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(strings.TrimSpace(subject))

	if body = strings.TrimSpace(body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(Trailer)
	return sb.String()
}

// AppendTrailer adds Trailer to a free-form message unless it is already
// there.
func AppendTrailer(msg string) string {
	if strings.Contains(msg, Trailer) {
		return msg
	}
	msg = strings.TrimRight(msg, "\n")
	return msg + "\n\n" + Trailer
}
