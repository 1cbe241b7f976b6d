// Package analyzer produces per-file review findings.
//
// LLMAnalyzer sends each file, line-numbered and truncated, to a language
// model and decodes the answer with DecodeFinding. ToolRunner executes an
// allowlist of external linters in the checkout before the model runs;
// their output is attached verbatim to every finding.
//
// Example:
//
//	tools, _ := analyzer.ParseToolList("ruff:ruff check .,bandit:bandit -r .")
//	a := analyzer.NewLLMAnalyzer(client, analyzer.WithTools(analyzer.NewToolRunner(tools, time.Minute)))
//	findings, err := a.Analyze(ctx, analyzer.Request{RepositoryPath: dir, Files: files})
package analyzer
