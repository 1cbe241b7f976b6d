package prompt

import (
	"regexp"
	"strings"
)

// outermostObject matches from the first '{' to the last '}'.
var outermostObject = regexp.MustCompile(`(?s)\{.*\}`)

// StripFences returns the body of the first ```json (or bare ```) block in
// output, or the trimmed output when it has no complete fence.
func StripFences(output string) string {
	output = strings.TrimSpace(output)

	if start := strings.Index(output, "```json"); start != -1 {
		start += len("```json")
		if end := strings.Index(output[start:], "```"); end != -1 {
			return strings.TrimSpace(output[start : start+end])
		}
	} else if start := strings.Index(output, "```"); start != -1 {
		start += 3
		if end := strings.Index(output[start:], "```"); end != -1 {
			return strings.TrimSpace(output[start : start+end])
		}
	}
	return output
}

// OutermostObject extracts the outermost {...} span from free text.
func OutermostObject(output string) (string, bool) {
	m := outermostObject.FindString(output)
	return m, m != ""
}
