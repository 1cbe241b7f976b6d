package reviewflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/reviewflow/intent"
	"github.com/randalmurphal/reviewflow/testutil"
	"github.com/randalmurphal/reviewflow/workflow"
)

// =============================================================================
// Ticket fake
// =============================================================================

type fakeTickets struct {
	mu          sync.Mutex
	nextID      int
	created     []TicketFields
	comments    map[string][]string
	attachments map[string][]string
	applied     []string
	transitions []Transition

	createErr  error
	commentErr error
	attachErr  error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		comments:    make(map[string][]string),
		attachments: make(map[string][]string),
		transitions: []Transition{
			{ID: "11", Name: "To Do"},
			{ID: "21", Name: "In Progress"},
			{ID: "31", Name: "Done"},
		},
	}
}

func (f *fakeTickets) CreateTicket(_ context.Context, fields TicketFields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, fields)
	return fmt.Sprintf("REV-%d", f.nextID), nil
}

func (f *fakeTickets) AddComment(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments[id] = append(f.comments[id], text)
	return nil
}

func (f *fakeTickets) ListTransitions(context.Context, string) ([]Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Transition(nil), f.transitions...), nil
}

func (f *fakeTickets) ApplyTransition(_ context.Context, _ string, transitionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, transitionID)
	return nil
}

func (f *fakeTickets) AddAttachment(_ context.Context, id, filename string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attachments[id] = append(f.attachments[id], filename)
	return nil
}

// =============================================================================
// Chat fake
// =============================================================================

type chatMessage struct {
	Channel, Text, Thread string
}

type fakeChat struct {
	mu       sync.Mutex
	messages []chatMessage
	uploads  []chatMessage // Text holds the file name
	seq      int
	postErr  error
}

func (f *fakeChat) PostMessage(_ context.Context, channel, text, threadRef string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	f.seq++
	f.messages = append(f.messages, chatMessage{Channel: channel, Text: text, Thread: threadRef})
	return fmt.Sprintf("1700000000.%06d", f.seq), nil
}

func (f *fakeChat) UploadFile(_ context.Context, channel string, _ []byte, filename, threadRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, chatMessage{Channel: channel, Text: filename, Thread: threadRef})
	return nil
}

// =============================================================================
// Repository and analysis fakes
// =============================================================================

// fakeFetcher writes files into a fresh directory instead of cloning.
type fakeFetcher struct {
	t     *testing.T
	files map[string]string
	calls int
	err   error
}

func (f *fakeFetcher) Clone(_ context.Context, url, _ string, _ int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	dir := filepath.Join(f.t.TempDir(), "checkout")
	testutil.WriteTree(f.t, dir, f.files)
	return dir, nil
}

// scriptedAnalyzer returns one finding per file, scored and annotated from
// the script keyed by path.
type scriptedAnalyzer struct {
	script map[string]workflow.Finding
	got    []AnalysisRequest
	err    error
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, req AnalysisRequest) ([]workflow.Finding, error) {
	a.got = append(a.got, req)
	if a.err != nil {
		return nil, a.err
	}
	var out []workflow.Finding
	for _, f := range req.Files {
		finding, ok := a.script[f.Path]
		if !ok {
			finding = workflow.Finding{Score: 75}
		}
		finding.File = f.Path
		out = append(out, finding)
	}
	return out, nil
}

type fakePrioritizer struct {
	pick []string
}

func (p fakePrioritizer) Prioritize(_ context.Context, _ []string, _ workflow.Focus, maxFiles int) []string {
	return head(p.pick, maxFiles)
}

type fakeTools struct{ results []workflow.ToolResult }

func (f fakeTools) Run(context.Context, string) []workflow.ToolResult { return f.results }

type fakeParser struct {
	intent Intent
	err    error
}

func (p fakeParser) Parse(context.Context, string) (Intent, error) { return p.intent, p.err }

// memoryStore is a RunStore kept in a map.
type memoryStore struct {
	mu    sync.Mutex
	runs  map[string]workflow.State
	saves int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: make(map[string]workflow.State)}
}

func (m *memoryStore) Save(_ context.Context, state workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.runs[state.RunID] = state.Clone()
	return nil
}

func (m *memoryStore) Load(_ context.Context, runID string) (workflow.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.runs[runID]
	if !ok {
		return workflow.State{}, errors.New("run not found")
	}
	return s.Clone(), nil
}

// =============================================================================
// Fixtures
// =============================================================================

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// reviewFixture is a three-file repository scored 90, 70 and 80 with one
// critical and one high issue.
func reviewFixture(t *testing.T) (*Services, *fakeTickets, *fakeChat) {
	t.Helper()
	tickets := newFakeTickets()
	chat := &fakeChat{}
	s := &Services{
		Parser:  intent.RegexParser{},
		Tickets: tickets,
		Chat:    chat,
		Fetcher: &fakeFetcher{t: t, files: map[string]string{
			"app.py":      "import os\n",
			"lib/util.go": "package lib\n",
			"web/main.js": "console.log(1)\n",
			"README.md":   "# readme\n",
		}},
		Analyzer: &scriptedAnalyzer{script: map[string]workflow.Finding{
			"app.py": {Score: 90, Strengths: []string{"clear names"}},
			"lib/util.go": {Score: 70, Issues: []workflow.Issue{
				{Line: "12", Severity: "critical", Type: "sql_injection", Issue: "query built from input", SuggestedFix: "use placeholders"},
			}, LineByLine: map[string]string{"10-15": "builds the query", "3": "imports"}},
			"web/main.js": {Score: 80, Issues: []workflow.Issue{
				{Line: "1", Severity: "High", Type: "logging", Issue: "debug output", SuggestedFix: "remove it"},
				{Line: "1", Severity: "low", Issue: "style"},
			}, Improvements: []string{"add tests"}},
		}},
		Timeouts: DefaultTimeouts(),
		Now:      func() time.Time { return fixedNow },
	}
	return s, tickets, chat
}
