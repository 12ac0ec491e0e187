// Package capture provides the sources notes are captured from.
package capture

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Origin values recorded under metadata "from".
const (
	FromCLI   = "cli"
	FromStdin = "stdin"
	FromHTML  = "html"
)

// TextSource captures a fixed string.
type TextSource struct {
	Text string
	From string // defaults to FromCLI
}

// Fetch implements core.Source.
func (s TextSource) Fetch(ctx context.Context) (*core.CapturePayload, error) {
	from := s.From
	if from == "" {
		from = FromCLI
	}
	return &core.CapturePayload{
		Text:   s.Text,
		Type:   core.TypeText,
		Raw:    s.Text,
		Origin: core.Metadata{"from": from},
	}, nil
}

// ReaderSource captures everything readable from R, typically stdin.
type ReaderSource struct {
	R    io.Reader
	From string // defaults to FromStdin
}

// Fetch implements core.Source.
func (s ReaderSource) Fetch(ctx context.Context) (*core.CapturePayload, error) {
	data, err := io.ReadAll(s.R)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	from := s.From
	if from == "" {
		from = FromStdin
	}
	return TextSource{Text: string(data), From: from}.Fetch(ctx)
}

// HTMLSource captures an HTML fragment converted to Markdown. URL, when
// set, resolves relative links and is recorded as the note's origin.
type HTMLSource struct {
	HTML string
	URL  string
}

// Fetch implements core.Source.
func (s HTMLSource) Fetch(ctx context.Context) (*core.CapturePayload, error) {
	domain := ""
	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil {
			return nil, fmt.Errorf("parse origin url: %w", err)
		}
		domain = u.Host
	}

	converter := md.NewConverter(domain, true, nil)
	markdown, err := converter.ConvertString(s.HTML)
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}

	origin := core.Metadata{"from": FromHTML}
	if s.URL != "" {
		origin["origin"] = s.URL
	}
	return &core.CapturePayload{
		Text:   strings.TrimSpace(markdown),
		Type:   core.TypeText,
		Raw:    s.HTML,
		Origin: origin,
	}, nil
}

var (
	_ core.Source = TextSource{}
	_ core.Source = ReaderSource{}
	_ core.Source = HTMLSource{}
)
