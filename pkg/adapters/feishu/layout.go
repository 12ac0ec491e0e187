package feishu

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wwwbq/FlashMemo/pkg/codec"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// footerTextColor marks the runs of the trailing tag line so it can be told
// apart from body text on load.
const footerTextColor = 7

// docMeta is the JSON object stored in the first block of every document.
type docMeta struct {
	ID        string   `json:"id"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	Origin    string   `json:"origin"`
}

// buildBlocks lays out a prepared note as document blocks: metadata code
// block, optional source callout, body, tag footer.
func buildBlocks(note core.Note) ([]codec.Block, error) {
	tags := note.TargetTags()
	meta, err := encodeMeta(docMeta{
		ID:        note.ID,
		Tags:      tags,
		CreatedAt: note.CreatedAt,
		Origin:    note.Metadata.String("origin"),
	})
	if err != nil {
		return nil, err
	}

	blocks := []codec.Block{codec.CodeBlock(codec.LanguageJSON, meta)}
	if src := sourceLine(note.Metadata); src != "" {
		blocks = append(blocks, codec.CalloutBlock(codec.ColorSource, src))
	}
	blocks = append(blocks, codec.FromMarkdown(note.Content)...)
	return append(blocks, footerBlock(tags)), nil
}

func encodeMeta(m docMeta) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func sourceLine(md core.Metadata) string {
	var parts []string
	if from := md.String("from"); from != "" {
		parts = append(parts, from)
	}
	if origin := md.String("origin"); origin != "" {
		parts = append(parts, origin)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Source: " + strings.Join(parts, " | ")
}

func footerBlock(tags []string) codec.Block {
	style := &codec.TextStyle{Italic: true, TextColor: footerTextColor}
	elements := make([]codec.Element, 0, len(tags))
	for i, t := range tags {
		content := "#" + t
		if i > 0 {
			content = " " + content
		}
		elements = append(elements, codec.Run(content, style))
	}
	return codec.TextBlock(elements...)
}

func isFooter(b codec.Block) bool {
	if b.BlockType != codec.BlockText || b.Text == nil || len(b.Text.Elements) == 0 {
		return false
	}
	for _, e := range b.Text.Elements {
		if e.TextRun == nil || e.TextRun.Style == nil || e.TextRun.Style.TextColor != footerTextColor {
			return false
		}
	}
	return true
}

// decodeMeta returns the metadata held by b, if b is a metadata block.
func decodeMeta(b codec.Block) (docMeta, bool) {
	if b.BlockType != codec.BlockCode || b.Code == nil {
		return docMeta{}, false
	}
	raw := codec.PlainText(b.Code.Elements)
	if validateMetadata(raw) != nil {
		return docMeta{}, false
	}
	var m docMeta
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m.ID == "" {
		return docMeta{}, false
	}
	return m, true
}

// decodeDocument rebuilds a note from a document's blocks. Without a
// metadata block the token stands in for the id and tags stay empty.
func decodeDocument(token, name string, blocks []codec.Block) core.Note {
	if len(blocks) > 0 && blocks[0].BlockType == codec.BlockPage {
		blocks = blocks[1:]
	}

	note := core.Note{
		ID:          token,
		Title:       name,
		Type:        core.TypeText,
		Attachments: []core.Attachment{},
		Metadata: core.Metadata{
			"filename": name,
			"title":    name,
			"token":    token,
		},
	}

	if len(blocks) > 0 {
		if m, ok := decodeMeta(blocks[0]); ok {
			blocks = blocks[1:]
			note.ID = m.ID
			note.Tags = core.NormalizeTags(m.Tags)
			note.CreatedAt = m.CreatedAt
			if m.Origin != "" {
				note.Metadata["origin"] = m.Origin
			}
		}
	}
	if n := len(blocks); n > 0 && isFooter(blocks[n-1]) {
		blocks = blocks[:n-1]
	}

	note.Content = codec.ToMarkdown(blocks)
	return note
}
