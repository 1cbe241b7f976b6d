package jira

import (
	"strings"
)

// Document is an Atlassian Document Format (ADF) document, the rich text
// representation of API v3.
type Document struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a block or inline ADF node.
type Node struct {
	Type    string         `json:"type"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Mark is inline formatting.
type Mark struct {
	Type string `json:"type"`
}

// MarkdownToADF converts the Markdown subset used in review comments:
// ATX headings, bullet and numbered lists, fenced code blocks, paragraphs,
// **bold** and `code` spans.
func MarkdownToADF(markdown string) *Document {
	doc := &Document{Version: 1, Type: "doc", Content: []Node{}}
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")

	var para []string
	flush := func() {
		if len(para) == 0 {
			return
		}
		var inline []Node
		for i, l := range para {
			if i > 0 {
				inline = append(inline, Node{Type: "hardBreak"})
			}
			inline = append(inline, inlineNodes(l)...)
		}
		doc.Content = append(doc.Content, Node{Type: "paragraph", Content: inline})
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		case strings.HasPrefix(trimmed, "```"):
			flush()
			lang := strings.TrimPrefix(trimmed, "```")
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			block := Node{Type: "codeBlock", Content: []Node{{Type: "text", Text: strings.Join(code, "\n")}}}
			if lang != "" {
				block.Attrs = map[string]any{"language": lang}
			}
			doc.Content = append(doc.Content, block)

		case headingLevel(trimmed) > 0:
			flush()
			level := headingLevel(trimmed)
			doc.Content = append(doc.Content, Node{
				Type:    "heading",
				Attrs:   map[string]any{"level": level},
				Content: inlineNodes(strings.TrimSpace(trimmed[level:])),
			})

		case listMarker(trimmed) != "":
			flush()
			kind := listMarker(trimmed)
			list := Node{Type: kind}
			for ; i < len(lines); i++ {
				t := strings.TrimSpace(lines[i])
				if listMarker(t) != kind {
					break
				}
				item := Node{Type: "paragraph", Content: inlineNodes(stripListMarker(t))}
				list.Content = append(list.Content, Node{Type: "listItem", Content: []Node{item}})
			}
			i--
			doc.Content = append(doc.Content, list)

		default:
			para = append(para, trimmed)
		}
	}
	flush()
	return doc
}

func headingLevel(line string) int {
	n := 0
	for n < len(line) && n < 6 && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

func listMarker(line string) string {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return "bulletList"
	}
	dot := strings.Index(line, ". ")
	if dot > 0 && dot <= 3 && isDigits(line[:dot]) {
		return "orderedList"
	}
	return ""
}

func stripListMarker(line string) string {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return line[2:]
	}
	if dot := strings.Index(line, ". "); dot > 0 {
		return line[dot+2:]
	}
	return line
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// inlineNodes splits text into text nodes with strong and code marks.
func inlineNodes(text string) []Node {
	var out []Node
	for text != "" {
		bold := strings.Index(text, "**")
		code := strings.Index(text, "`")

		switch {
		case code >= 0 && (bold < 0 || code < bold):
			end := strings.Index(text[code+1:], "`")
			if end < 0 {
				return append(out, Node{Type: "text", Text: text})
			}
			out = appendText(out, text[:code])
			out = append(out, Node{Type: "text", Text: text[code+1 : code+1+end], Marks: []Mark{{Type: "code"}}})
			text = text[code+2+end:]
		case bold >= 0:
			end := strings.Index(text[bold+2:], "**")
			if end < 0 {
				return append(out, Node{Type: "text", Text: text})
			}
			out = appendText(out, text[:bold])
			out = append(out, Node{Type: "text", Text: text[bold+2 : bold+2+end], Marks: []Mark{{Type: "strong"}}})
			text = text[bold+4+end:]
		default:
			return appendText(out, text)
		}
	}
	return out
}

func appendText(nodes []Node, s string) []Node {
	if s == "" {
		return nodes
	}
	return append(nodes, Node{Type: "text", Text: s})
}
