package analyzer

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/reviewflow/workflow"
)

// ErrNoFiles indicates an analysis request without files.
var ErrNoFiles = errors.New("no files to analyze")

// ErrAllFilesFailed indicates that no file produced a finding.
var ErrAllFilesFailed = errors.New("every file failed analysis")

// SourceFile is one file to review. Path is relative to the repository root.
type SourceFile struct {
	Path    string
	Content string
}

// Request is the input to an analysis.
type Request struct {
	RepositoryPath string
	Files          []SourceFile
	Focus          workflow.Focus
	// Tools holds results computed by the caller. When empty and the
	// analyzer has a ToolRunner, the runner fills it.
	Tools []workflow.ToolResult
}

var languages = map[string]string{
	".py": "Python", ".go": "Go", ".js": "JavaScript", ".jsx": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript", ".java": "Java", ".kt": "Kotlin",
	".rb": "Ruby", ".rs": "Rust", ".php": "PHP", ".cs": "C#", ".c": "C",
	".h": "C", ".cpp": "C++", ".hpp": "C++", ".swift": "Swift", ".scala": "Scala",
}

// Language guesses the language name from a file extension.
func Language(path string) string {
	return languages[strings.ToLower(filepath.Ext(path))]
}
