package codec

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var parser = goldmark.New().Parser()

// Parse reads markdown and returns its block level constructs in document
// order. Raw HTML is kept verbatim as plain text. Thematic breaks have no
// block mapping and are skipped.
func Parse(markdown string) []Node {
	src := []byte(markdown)
	doc := parser.Parse(text.NewReader(src))

	var nodes []Node
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		nodes = appendBlock(nodes, child, src)
	}
	return nodes
}

func appendBlock(nodes []Node, n ast.Node, src []byte) []Node {
	switch n := n.(type) {
	case *ast.Heading:
		return append(nodes, Heading{Level: n.Level, Spans: inlineSpans(n, src)})
	case *ast.Paragraph, *ast.TextBlock:
		spans := inlineSpans(n, src)
		if len(spans) == 0 {
			return nodes
		}
		return append(nodes, Paragraph{Spans: spans})
	case *ast.FencedCodeBlock:
		return append(nodes, CodeFence{Language: string(n.Language(src)), Code: blockLines(n, src)})
	case *ast.CodeBlock:
		return append(nodes, CodeFence{Code: blockLines(n, src)})
	case *ast.List:
		return appendList(nodes, n, src)
	case *ast.Blockquote:
		return append(nodes, Quote{})
	case *ast.HTMLBlock:
		raw := htmlLines(n, src)
		if strings.TrimSpace(raw) == "" {
			return nodes
		}
		return append(nodes, Paragraph{Spans: []Span{{Text: raw}}})
	}
	return nodes
}

// appendList flattens a list, including nested lists, into ListItem nodes.
func appendList(nodes []Node, list *ast.List, src []byte) []Node {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var spans []Span
		var nested []*ast.List
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				if spans == nil {
					spans = inlineSpans(c, src)
				}
			case *ast.List:
				nested = append(nested, c)
			}
		}
		nodes = append(nodes, ListItem{Ordered: list.IsOrdered(), Spans: spans})
		for _, l := range nested {
			nodes = appendList(nodes, l, src)
		}
	}
	return nodes
}

func blockLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// htmlLines returns the source of an HTML block, including its closing line.
func htmlLines(n *ast.HTMLBlock, src []byte) string {
	raw := blockLines(n, src)
	if n.HasClosure() {
		raw = strings.TrimRight(raw+"\n"+string(n.ClosureLine.Value(src)), "\n")
	}
	return raw
}

func inlineSpans(n ast.Node, src []byte) []Span {
	var spans []Span
	collectSpans(&spans, n, Span{}, src)
	return spans
}

func collectSpans(spans *[]Span, n ast.Node, style Span, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			content := string(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				content += "\n"
			}
			pushSpan(spans, style, content)
		case *ast.String:
			pushSpan(spans, style, string(c.Value))
		case *ast.Emphasis:
			inner := style
			if c.Level >= 2 {
				inner.Bold = true
			} else {
				inner.Italic = true
			}
			collectSpans(spans, c, inner, src)
		case *ast.CodeSpan:
			inner := style
			inner.Code = true
			collectSpans(spans, c, inner, src)
		case *ast.Link:
			inner := style
			inner.Link = true
			collectSpans(spans, c, inner, src)
		case *ast.AutoLink:
			inner := style
			inner.Link = true
			pushSpan(spans, inner, string(c.Label(src)))
		case *ast.RawHTML:
			// dropped
		default:
			collectSpans(spans, c, style, src)
		}
	}
}

// pushSpan appends text, merging it into the previous span when the styles match.
func pushSpan(spans *[]Span, style Span, content string) {
	if content == "" {
		return
	}
	if last := len(*spans) - 1; last >= 0 && (*spans)[last].sameStyle(style) {
		(*spans)[last].Text += content
		return
	}
	style.Text = content
	*spans = append(*spans, style)
}
