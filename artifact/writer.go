package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/randalmurphal/reviewflow/workflow"
)

// Artifact errors
var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrNilReport        = errors.New("report is nil")
)

const (
	filePrefix = "code_review_"
	fileSuffix = ".json"
)

// unsafeChars are replaced in ticket IDs used as file names.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Info describes a stored report.
type Info struct {
	Name       string    `json:"name"`
	TicketID   string    `json:"ticketId"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Writer stores reports under one directory of an afero filesystem.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter creates a writer. An empty dir writes to the filesystem root
// of fs (the working directory for afero.NewOsFs).
func NewWriter(fs afero.Fs, dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{fs: fs, dir: dir}
}

// Dir returns the report directory.
func (w *Writer) Dir() string {
	return w.dir
}

// FileName returns the artifact name for a ticket.
func FileName(ticketID string) string {
	id := unsafeChars.ReplaceAllString(strings.TrimSpace(ticketID), "_")
	if id == "" {
		id = "unticketed"
	}
	return filePrefix + id + fileSuffix
}

// WriteReport serializes report as indented JSON, writes it atomically and
// returns the file name and the bytes written, ready to attach elsewhere.
func (w *Writer) WriteReport(ctx context.Context, ticketID string, report *workflow.Report) (string, []byte, error) {
	if report == nil {
		return "", nil, ErrNilReport
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	content, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal report: %w", err)
	}
	name := FileName(ticketID)
	if err := writeFileAtomic(w.fs, filepath.Join(w.dir, name), content); err != nil {
		return "", nil, err
	}
	return name, content, nil
}

// Load reads a stored report by file name or ticket ID.
func (w *Writer) Load(nameOrTicket string) (*workflow.Report, error) {
	name := nameOrTicket
	if !strings.HasPrefix(name, filePrefix) {
		name = FileName(nameOrTicket)
	}
	data, err := afero.ReadFile(w.fs, filepath.Join(w.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return nil, err
	}
	var report workflow.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &report, nil
}

// List returns stored reports, newest first.
func (w *Writer) List() ([]Info, error) {
	entries, err := afero.ReadDir(w.fs, w.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var infos []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		infos = append(infos, Info{
			Name:       name,
			TicketID:   strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix),
			Size:       e.Size(),
			ModifiedAt: e.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModifiedAt.After(infos[j].ModifiedAt)
	})
	return infos, nil
}

// PruneResult summarizes a Prune call.
type PruneResult struct {
	Deleted []string `json:"deleted"`
	Kept    []string `json:"kept"`
	Errors  []string `json:"errors,omitempty"`
}

// Prune deletes reports last modified before cutoff, always keeping the
// keepMin newest ones. With dryRun nothing is removed.
func (w *Writer) Prune(cutoff time.Time, keepMin int, dryRun bool) (*PruneResult, error) {
	infos, err := w.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{Deleted: []string{}, Kept: []string{}}
	for i, info := range infos {
		if i < keepMin || !info.ModifiedAt.Before(cutoff) {
			result.Kept = append(result.Kept, info.Name)
			continue
		}
		if !dryRun {
			if err := w.fs.Remove(filepath.Join(w.dir, info.Name)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", info.Name, err))
				continue
			}
		}
		result.Deleted = append(result.Deleted, info.Name)
	}
	return result, nil
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = fs.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
