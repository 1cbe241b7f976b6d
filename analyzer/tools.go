package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/randalmurphal/reviewflow/workflow"
)

// DefaultToolTimeout bounds one external tool run.
const DefaultToolTimeout = 2 * time.Minute

// maxToolOutput caps captured stdout/stderr per stream.
const maxToolOutput = 64 << 10

// Tool is an allowlisted external command. Command is split on whitespace
// and executed without a shell.
type Tool struct {
	Name    string
	Command string
}

// ParseToolList parses "name:command,name:command". Blank entries are skipped.
func ParseToolList(s string) ([]Tool, error) {
	var tools []Tool
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, cmd, ok := strings.Cut(entry, ":")
		name, cmd = strings.TrimSpace(name), strings.TrimSpace(cmd)
		if !ok || name == "" || cmd == "" {
			return nil, fmt.Errorf("invalid tool entry %q: want name:command", entry)
		}
		tools = append(tools, Tool{Name: name, Command: cmd})
	}
	return tools, nil
}

// ToolRunner runs the allowlisted tools in a checkout.
type ToolRunner struct {
	tools   []Tool
	timeout time.Duration
	logger  *slog.Logger
}

// NewToolRunner creates a runner. A non-positive timeout uses DefaultToolTimeout.
func NewToolRunner(tools []Tool, timeout time.Duration) *ToolRunner {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &ToolRunner{tools: tools, timeout: timeout, logger: slog.Default()}
}

// Tools returns the allowlist.
func (r *ToolRunner) Tools() []Tool {
	return r.tools
}

// Run executes every tool in dir, in order. A tool that cannot start or
// times out is reported with ReturnCode -1 and the error in Stderr; it never
// aborts the remaining tools.
func (r *ToolRunner) Run(ctx context.Context, dir string) []workflow.ToolResult {
	results := make([]workflow.ToolResult, 0, len(r.tools))
	for _, t := range r.tools {
		if ctx.Err() != nil {
			break
		}
		res := r.runOne(ctx, dir, t)
		r.logger.Info("external tool finished", "tool", t.Name, "return_code", res.ReturnCode)
		results = append(results, res)
	}
	return results
}

func (r *ToolRunner) runOne(ctx context.Context, dir string, t Tool) workflow.ToolResult {
	res := workflow.ToolResult{Tool: t.Name, Command: t.Command}
	args := strings.Fields(t.Command)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = truncate(stdout.String())
	res.Stderr = truncate(stderr.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.ReturnCode = -1
		res.Stderr = strings.TrimSpace(res.Stderr + "\n" + fmt.Sprintf("timed out after %s", r.timeout))
	case errors.As(err, &exitErr):
		res.ReturnCode = exitErr.ExitCode()
	default:
		res.ReturnCode = -1
		res.Stderr = strings.TrimSpace(res.Stderr + "\n" + err.Error())
	}
	return res
}

func truncate(s string) string {
	if len(s) <= maxToolOutput {
		return s
	}
	return s[:maxToolOutput] + "\n... [output truncated]"
}
