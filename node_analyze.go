package reviewflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/randalmurphal/reviewflow/workflow"
)

// AnalyzeNode runs the external tools, optionally narrows the file list,
// and has the Analyzer review every remaining file.
//
// Updates: state.ToolResults, state.FilesToReview, state.Findings,
// state.AnalysisCompleted
func (s *Services) AnalyzeNode(ctx context.Context, state workflow.State) (workflow.State, error) {
	if state.LocalRepositoryPath == "" || len(state.FilesToReview) == 0 {
		return state, ErrNoFiles
	}

	actx, cancel := bounded(ctx, s.Timeouts.LLM)
	defer cancel()

	if s.Tools != nil && len(state.ToolResults) == 0 {
		state.ToolResults = s.Tools.Run(actx, state.LocalRepositoryPath)
	}

	files := state.FilesToReview
	if s.Prioritizer != nil && s.MaxFiles > 0 && len(files) > s.MaxFiles {
		files = s.Prioritizer.Prioritize(actx, files, state.ReviewFocus, s.MaxFiles)
	} else if s.MaxFiles > 0 && len(files) > s.MaxFiles {
		files = files[:s.MaxFiles]
	}
	state.FilesToReview = files

	sources, err := s.readSources(state.LocalRepositoryPath, files)
	if err != nil {
		return state, err
	}

	findings, err := s.Analyzer.Analyze(actx, AnalysisRequest{
		RepositoryPath: state.LocalRepositoryPath,
		Files:          sources,
		Focus:          state.ReviewFocus,
		Tools:          state.ToolResults,
	})
	if err != nil {
		return state, fmt.Errorf("analyze: %w", err)
	}
	if len(findings) == 0 {
		return state, fmt.Errorf("analyze: %w", ErrNoFindings)
	}

	state.Findings = findings
	state.AnalysisCompleted = true
	s.logger().Info("analysis completed", "run_id", state.RunID, "findings", len(findings), "tools", len(state.ToolResults))
	return state, nil
}

// readSources loads the files relative to root, skipping unreadable ones.
func (s *Services) readSources(root string, files []string) ([]SourceFile, error) {
	sources := make([]SourceFile, 0, len(files))
	var errs []error
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			s.logger().Warn("skipping unreadable file", "file", rel, "error", err)
			errs = append(errs, err)
			continue
		}
		sources = append(sources, SourceFile{Path: rel, Content: string(data)})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoFiles, errors.Join(errs...))
	}
	return sources, nil
}
