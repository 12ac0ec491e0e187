package codec

import "strings"

// BlockType is the numeric block kind used by the remote document API.
type BlockType int

const (
	BlockPage     BlockType = 1
	BlockText     BlockType = 2
	BlockHeading1 BlockType = 3
	BlockHeading9 BlockType = 11
	BlockBullet   BlockType = 12
	BlockOrdered  BlockType = 13
	BlockCode     BlockType = 14
	BlockCallout  BlockType = 19
)

// Code block languages.
const (
	LanguagePlainText = 1
	LanguageJSON      = 25
)

// Callout background colors.
const (
	ColorQuote  = 5
	ColorSource = 6
)

// TextStyle is the inline style of a text run.
type TextStyle struct {
	Bold       bool `json:"bold,omitempty"`
	Italic     bool `json:"italic,omitempty"`
	InlineCode bool `json:"inline_code,omitempty"`
	Underline  bool `json:"underline,omitempty"`
	TextColor  int  `json:"text_color,omitempty"`
}

// TextRun is a run of text sharing one style.
type TextRun struct {
	Content string     `json:"content"`
	Style   *TextStyle `json:"text_element_style,omitempty"`
}

// Element is one inline element of a text body.
type Element struct {
	TextRun *TextRun `json:"text_run,omitempty"`
}

// TextBody holds the elements of a text, heading or list block.
type TextBody struct {
	Elements []Element `json:"elements"`
}

// CodeStyle carries the language of a code block.
type CodeStyle struct {
	Language int  `json:"language,omitempty"`
	Wrap     bool `json:"wrap,omitempty"`
}

// CodeBody is the payload of a code block.
type CodeBody struct {
	Style    *CodeStyle `json:"style,omitempty"`
	Elements []Element  `json:"elements"`
}

// CalloutBody is the payload of a callout block.
type CalloutBody struct {
	BackgroundColor int       `json:"background_color,omitempty"`
	Element         *TextBody `json:"element,omitempty"`
}

// Block is a typed unit of remote document content. Exactly one payload
// field matching BlockType is set.
type Block struct {
	BlockID   string    `json:"block_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	BlockType BlockType `json:"block_type"`

	Text     *TextBody    `json:"text,omitempty"`
	Heading1 *TextBody    `json:"heading1,omitempty"`
	Heading2 *TextBody    `json:"heading2,omitempty"`
	Heading3 *TextBody    `json:"heading3,omitempty"`
	Heading4 *TextBody    `json:"heading4,omitempty"`
	Heading5 *TextBody    `json:"heading5,omitempty"`
	Heading6 *TextBody    `json:"heading6,omitempty"`
	Heading7 *TextBody    `json:"heading7,omitempty"`
	Heading8 *TextBody    `json:"heading8,omitempty"`
	Heading9 *TextBody    `json:"heading9,omitempty"`
	Bullet   *TextBody    `json:"bullet,omitempty"`
	Ordered  *TextBody    `json:"ordered,omitempty"`
	Code     *CodeBody    `json:"code,omitempty"`
	Callout  *CalloutBody `json:"callout,omitempty"`
}

// HeadingLevel returns the heading level of the block, or 0 if it is not a heading.
func (b Block) HeadingLevel() int {
	if b.BlockType < BlockHeading1 || b.BlockType > BlockHeading9 {
		return 0
	}
	return int(b.BlockType-BlockHeading1) + 1
}

// Body returns the text body of text, heading and list blocks.
func (b Block) Body() *TextBody {
	switch b.BlockType {
	case BlockText:
		return b.Text
	case BlockBullet:
		return b.Bullet
	case BlockOrdered:
		return b.Ordered
	}
	switch b.HeadingLevel() {
	case 1:
		return b.Heading1
	case 2:
		return b.Heading2
	case 3:
		return b.Heading3
	case 4:
		return b.Heading4
	case 5:
		return b.Heading5
	case 6:
		return b.Heading6
	case 7:
		return b.Heading7
	case 8:
		return b.Heading8
	case 9:
		return b.Heading9
	}
	return nil
}

// PlainText concatenates the content of all runs in elements.
func PlainText(elements []Element) string {
	var sb strings.Builder
	for _, e := range elements {
		if e.TextRun != nil {
			sb.WriteString(e.TextRun.Content)
		}
	}
	return sb.String()
}

// TextBlock builds a plain text block.
func TextBlock(elements ...Element) Block {
	return Block{BlockType: BlockText, Text: &TextBody{Elements: elements}}
}

// HeadingBlock builds a heading block. Levels outside 1..9 are clamped.
func HeadingBlock(level int, elements ...Element) Block {
	level = min(max(level, 1), 9)
	body := &TextBody{Elements: elements}
	b := Block{BlockType: BlockHeading1 + BlockType(level-1)}
	switch level {
	case 1:
		b.Heading1 = body
	case 2:
		b.Heading2 = body
	case 3:
		b.Heading3 = body
	case 4:
		b.Heading4 = body
	case 5:
		b.Heading5 = body
	case 6:
		b.Heading6 = body
	case 7:
		b.Heading7 = body
	case 8:
		b.Heading8 = body
	default:
		b.Heading9 = body
	}
	return b
}

// BulletBlock builds an unordered list item block.
func BulletBlock(elements ...Element) Block {
	return Block{BlockType: BlockBullet, Bullet: &TextBody{Elements: elements}}
}

// CodeBlock builds a code block holding content verbatim.
func CodeBlock(language int, content string) Block {
	return Block{BlockType: BlockCode, Code: &CodeBody{
		Style:    &CodeStyle{Language: language, Wrap: true},
		Elements: []Element{Run(content, nil)},
	}}
}

// CalloutBlock builds a callout block with a single line of text.
func CalloutBlock(color int, text string) Block {
	return Block{BlockType: BlockCallout, Callout: &CalloutBody{
		BackgroundColor: color,
		Element:         &TextBody{Elements: []Element{Run(text, nil)}},
	}}
}

// Run builds a text element. A nil or zero style is omitted.
func Run(content string, style *TextStyle) Element {
	if style != nil && *style == (TextStyle{}) {
		style = nil
	}
	return Element{TextRun: &TextRun{Content: content, Style: style}}
}
