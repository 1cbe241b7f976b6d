// Package task selects a model for each LLM call a review makes.
//
// Request parsing and file prioritization are short extraction tasks and use
// the fast tier; per-file review uses the default tier.
//
// Example usage:
//
//	m := task.SelectModel(task.ReviewFile, cfg.ModelOverrides)
//	client := llm.NewClaudeCLI(llm.WithModel(string(m)))
package task
