package codec

import (
	"fmt"
	"strings"
)

// QuotePlaceholder replaces the body of block quotes, whose content is not carried.
const QuotePlaceholder = "Quoted content omitted"

// FromMarkdown converts markdown into a block list.
func FromMarkdown(markdown string) []Block {
	return Render(Parse(markdown))
}

// Render converts nodes into blocks. Ordered and bullet list items both
// become bullet blocks.
func Render(nodes []Node) []Block {
	blocks := make([]Block, 0, len(nodes))
	for _, n := range nodes {
		blocks = append(blocks, renderNode(n))
	}
	return blocks
}

func renderNode(n Node) Block {
	switch n := n.(type) {
	case Heading:
		return HeadingBlock(n.Level, renderSpans(n.Spans)...)
	case Paragraph:
		return TextBlock(renderSpans(n.Spans)...)
	case CodeFence:
		return CodeBlock(languageCode(n.Language), n.Code)
	case ListItem:
		return BulletBlock(renderSpans(n.Spans)...)
	case Quote:
		return CalloutBlock(ColorQuote, QuotePlaceholder)
	default:
		panic(fmt.Sprintf("codec: unhandled node %T", n))
	}
}

func renderSpans(spans []Span) []Element {
	elements := make([]Element, 0, len(spans))
	for _, s := range spans {
		elements = append(elements, Run(s.Text, &TextStyle{
			Bold:       s.Bold,
			Italic:     s.Italic,
			InlineCode: s.Code,
			Underline:  s.Link,
		}))
	}
	return elements
}

func languageCode(lang string) int {
	if strings.EqualFold(strings.TrimSpace(lang), "json") {
		return LanguageJSON
	}
	return LanguagePlainText
}

func languageName(code int) string {
	if code == LanguageJSON {
		return "json"
	}
	return ""
}
