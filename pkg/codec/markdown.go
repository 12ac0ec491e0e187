package codec

import "strings"

// ToMarkdown rebuilds markdown from blocks. It is a best-effort inverse of
// FromMarkdown: callouts and page blocks are dropped, link targets are gone
// and ordered items come back as "1." items only if the block says so.
func ToMarkdown(blocks []Block) string {
	var sb strings.Builder
	prevItem := false
	for _, b := range blocks {
		line, item, ok := blockMarkdown(b)
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			if item && prevItem {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(line)
		prevItem = item
	}
	return sb.String()
}

func blockMarkdown(b Block) (line string, item bool, ok bool) {
	switch {
	case b.BlockType == BlockText && b.Text != nil:
		return spansMarkdown(b.Text.Elements), false, true
	case b.HeadingLevel() > 0 && b.Body() != nil:
		return strings.Repeat("#", b.HeadingLevel()) + " " + spansMarkdown(b.Body().Elements), false, true
	case b.BlockType == BlockBullet && b.Bullet != nil:
		return "- " + spansMarkdown(b.Bullet.Elements), true, true
	case b.BlockType == BlockOrdered && b.Ordered != nil:
		return "1. " + spansMarkdown(b.Ordered.Elements), true, true
	case b.BlockType == BlockCode && b.Code != nil:
		lang := 0
		if b.Code.Style != nil {
			lang = b.Code.Style.Language
		}
		return "```" + languageName(lang) + "\n" + PlainText(b.Code.Elements) + "\n```", false, true
	}
	return "", false, false
}

func spansMarkdown(elements []Element) string {
	var sb strings.Builder
	for _, e := range elements {
		if e.TextRun == nil {
			continue
		}
		sb.WriteString(styled(e.TextRun.Content, e.TextRun.Style))
	}
	return sb.String()
}

func styled(content string, style *TextStyle) string {
	if style == nil || strings.TrimSpace(content) == "" {
		return content
	}
	if style.InlineCode {
		content = "`" + content + "`"
	}
	if style.Italic {
		content = "*" + content + "*"
	}
	if style.Bold {
		content = "**" + content + "**"
	}
	return content
}
