package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandRunner executes external commands.
type CommandRunner interface {
	// Run executes name with args in dir and returns trimmed stdout.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the process environment when set.
	Env []string
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &CommandError{
			Command: name,
			Args:    args,
			Output:  strings.TrimSpace(stderr.String() + stdout.String()),
			Err:     err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CommandError describes a failed command.
type CommandError struct {
	Command string
	Args    []string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "command failed"
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// MockResponse is a canned result for MockRunner.
type MockResponse struct {
	Stdout string
	Err    error
}

// MockRunner returns canned responses keyed by command line and records
// every call. Lookups try "name arg1 arg2..." first, then "name".
type MockRunner struct {
	mu        sync.Mutex
	Responses map[string]MockResponse
	Calls     []Call
}

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{Responses: make(map[string]MockResponse)}
}

// OnCommand starts a response registration.
//
//	runner.OnCommand("git", "rev-parse", "HEAD").Return("abc123", nil)
func (m *MockRunner) OnCommand(name string, args ...string) *MockExpectation {
	return &MockExpectation{runner: m, key: Call{Name: name, Args: args}.String()}
}

// Run implements CommandRunner.
func (m *MockRunner) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := Call{Dir: dir, Name: name, Args: args}
	m.Calls = append(m.Calls, call)

	if resp, ok := m.Responses[call.String()]; ok {
		return resp.Stdout, resp.Err
	}
	if resp, ok := m.Responses[name]; ok {
		return resp.Stdout, resp.Err
	}
	return "", fmt.Errorf("mock runner: no response for %q", call.String())
}

// CallCount returns how many commands were run.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockExpectation completes an OnCommand registration.
type MockExpectation struct {
	runner *MockRunner
	key    string
}

// Return sets the response.
func (e *MockExpectation) Return(stdout string, err error) {
	e.runner.mu.Lock()
	defer e.runner.mu.Unlock()
	e.runner.Responses[e.key] = MockResponse{Stdout: stdout, Err: err}
}
