package codec

// Node is a block level markdown construct. The set of implementations is
// closed: Heading, Paragraph, CodeFence, ListItem and Quote.
type Node interface {
	node()
}

// Heading is an ATX or setext heading.
type Heading struct {
	Level int
	Spans []Span
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Spans []Span
}

// CodeFence is a fenced or indented code block.
type CodeFence struct {
	Language string
	Code     string
}

// ListItem is one item of a bullet or ordered list. Only the first
// paragraph of the item is kept.
type ListItem struct {
	Ordered bool
	Spans   []Span
}

// Quote is a block quote. Its content is not carried.
type Quote struct{}

func (Heading) node()   {}
func (Paragraph) node() {}
func (CodeFence) node() {}
func (ListItem) node()  {}
func (Quote) node()     {}

// Span is a piece of inline text with its accumulated style. A link keeps
// only its display text.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
	Link   bool
}

func (s Span) sameStyle(o Span) bool {
	return s.Bold == o.Bold && s.Italic == o.Italic && s.Code == o.Code && s.Link == o.Link
}
