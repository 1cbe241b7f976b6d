package repo

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultMaxFiles bounds discovery when DiscoverOptions.MaxFiles is zero.
const DefaultMaxFiles = 20

// DefaultExtensions are reviewed when DiscoverOptions.Extensions is empty.
var DefaultExtensions = []string{
	".py", ".go", ".js", ".jsx", ".ts", ".tsx", ".java", ".kt", ".rb",
	".rs", ".php", ".cs", ".c", ".h", ".cpp", ".hpp", ".swift", ".scala",
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "__pycache__": true,
	".venv": true, "venv": true, "dist": true, "build": true, "target": true,
	".idea": true, ".vscode": true,
}

// errLimit stops the walk once enough files are found.
var errLimit = errors.New("file limit reached")

// DiscoverOptions controls Discover.
type DiscoverOptions struct {
	Extensions []string // lowercase, with leading dot
	MaxFiles   int
}

// Discover walks root in lexical order and returns up to MaxFiles paths
// (relative to root, slash-separated) whose extension is listed.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}
	limit := opts.MaxFiles
	if limit <= 0 {
		limit = DefaultMaxFiles
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		if len(files) >= limit {
			return errLimit
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return nil, err
	}
	return files, nil
}
