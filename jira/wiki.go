package jira

import (
	"regexp"
	"strings"
)

var (
	wikiBold = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	wikiCode = regexp.MustCompile("`([^`]+)`")
)

// MarkdownToWiki converts the same Markdown subset as MarkdownToADF into
// Jira wiki markup for API v2.
func MarkdownToWiki(markdown string) string {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	inCode := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				out = append(out, "{code}")
			} else if lang := strings.TrimPrefix(trimmed, "```"); lang != "" {
				out = append(out, "{code:"+lang+"}")
			} else {
				out = append(out, "{code}")
			}
			inCode = !inCode
			continue
		}
		if inCode {
			out = append(out, line)
			continue
		}

		switch {
		case headingLevel(trimmed) > 0:
			level := headingLevel(trimmed)
			line = "h" + string(rune('0'+level)) + ". " + strings.TrimSpace(trimmed[level:])
		case listMarker(trimmed) == "bulletList":
			line = "* " + stripListMarker(trimmed)
		case listMarker(trimmed) == "orderedList":
			line = "# " + stripListMarker(trimmed)
		}
		line = wikiBold.ReplaceAllString(line, "*$1*")
		line = wikiCode.ReplaceAllString(line, "{{$1}}")
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
